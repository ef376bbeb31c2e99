package dto

import "time"

// CreateClientRequest alta de un cliente. El DNI es único entre clientes activos.
type CreateClientRequest struct {
	FirstName string `json:"nombre" validate:"required"`
	LastName  string `json:"apellido" validate:"required"`
	DNI       string `json:"dni" validate:"required"`
	Phone     string `json:"telefono"`
	Email     string `json:"email"`
	Address   string `json:"direccion"`
	Notes     string `json:"observaciones"`
}

// UpdateClientRequest patch parcial de un cliente.
type UpdateClientRequest struct {
	FirstName *string `json:"nombre,omitempty"`
	LastName  *string `json:"apellido,omitempty"`
	DNI       *string `json:"dni,omitempty"`
	Phone     *string `json:"telefono,omitempty"`
	Email     *string `json:"email,omitempty"`
	Address   *string `json:"direccion,omitempty"`
	Notes     *string `json:"observaciones,omitempty"`
}

// Empty indica que no se envió ningún campo.
func (r UpdateClientRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.DNI == nil && r.Phone == nil &&
		r.Email == nil && r.Address == nil && r.Notes == nil
}

// ClientResponse salida de un cliente.
type ClientResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"nombre"`
	LastName  string    `json:"apellido"`
	DNI       string    `json:"dni"`
	Phone     string    `json:"telefono,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"direccion,omitempty"`
	Notes     string    `json:"observaciones,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
