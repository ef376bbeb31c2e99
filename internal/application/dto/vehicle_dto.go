package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateVehicleRequest alta de un vehículo. Dominio es obligatorio para usados.
type CreateVehicleRequest struct {
	Type      string          `json:"tipo" validate:"required"`
	Brand     string          `json:"marca" validate:"required"`
	Model     string          `json:"modelo" validate:"required"`
	Version   string          `json:"version"`
	Year      int             `json:"anio" validate:"required"`
	Condition string          `json:"condicion" validate:"required,oneof=nuevo usado"`
	Price     decimal.Decimal `json:"precio" swaggertype:"number"`
	Plate     string          `json:"dominio"`
	Mileage   int             `json:"kilometraje"`
	Notes     string          `json:"observaciones"`
	Image     string          `json:"imagen"`
}

// UpdateVehicleRequest campos editables. El estado solo cambia a través de las minutas.
type UpdateVehicleRequest struct {
	Price   *decimal.Decimal `json:"precio,omitempty" swaggertype:"number"`
	Mileage *int             `json:"kilometraje,omitempty"`
	Notes   *string          `json:"observaciones,omitempty"`
	Image   *string          `json:"imagen,omitempty"`
}

// Empty indica que no se envió ningún campo.
func (r UpdateVehicleRequest) Empty() bool {
	return r.Price == nil && r.Mileage == nil && r.Notes == nil && r.Image == nil
}

// VehicleResponse salida de un vehículo.
type VehicleResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"tipo"`
	Brand     string          `json:"marca"`
	Model     string          `json:"modelo"`
	Version   string          `json:"version"`
	Year      int             `json:"anio"`
	Condition string          `json:"condicion"`
	Price     decimal.Decimal `json:"precio" swaggertype:"number"`
	Plate     string          `json:"dominio,omitempty"`
	Mileage   int             `json:"kilometraje"`
	Notes     string          `json:"observaciones"`
	Image     string          `json:"imagen,omitempty"`
	State     string          `json:"estado"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
