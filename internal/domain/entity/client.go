package entity

import "time"

// Client comprador. El DNI es único entre clientes no eliminados.
type Client struct {
	ID        string
	FirstName string
	LastName  string
	DNI       string
	Phone     string
	Email     string
	Address   string
	Notes     string
	Deleted   bool
	DeletedBy *string
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName nombre y apellido.
func (c *Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
