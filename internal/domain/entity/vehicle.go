package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de Vehicle.
const (
	VehicleAvailable = "disponible"
	VehicleReserved  = "reservado"
	VehicleSold      = "vendido"
)

// Condiciones de Vehicle.
const (
	ConditionNew  = "nuevo"
	ConditionUsed = "usado"
)

// Vehicle unidad del inventario. El estado solo cambia a través de operaciones de minuta.
type Vehicle struct {
	ID        string
	Type      string
	Brand     string
	Model     string
	Version   string
	Year      int
	Condition string
	Price     decimal.Decimal
	Plate     string // dominio; obligatorio si Condition == usado
	Mileage   int
	Notes     string
	Image     string
	State     string
	Deleted   bool
	DeletedBy *string
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label descripción corta para mensajes y documentos.
func (v *Vehicle) Label() string {
	s := v.Brand + " " + v.Model
	if v.Version != "" {
		s += " " + v.Version
	}
	return s
}
