package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de Minute. reservada e iniciada son activos; cerrada y cancelada son finales.
const (
	MinuteReserved  = "reservada"
	MinuteStarted   = "iniciada"
	MinuteClosed    = "cerrada"
	MinuteCancelled = "cancelada"
)

// MinuteTerms condiciones libres de financiamiento, permuta y seña.
type MinuteTerms struct {
	Financing             string              `json:"financiamiento,omitempty"`
	FinancingAdvance      decimal.NullDecimal `json:"financiamiento_anticipo"`
	FinancingInstallments *int                `json:"financiamiento_cuotas,omitempty"`
	FinancingPrice        decimal.NullDecimal `json:"financiamiento_precio"`
	TradeIn               bool                `json:"tradein_proporciona"`
	TradeInData           string              `json:"tradein_datos,omitempty"`
	ReserveAmount         decimal.NullDecimal `json:"reserva_monto"`
}

// Minute registro de reserva/venta: un vehículo, un cliente, un vendedor.
type Minute struct {
	ID            string
	VehicleID     string
	ClientID      string
	VendorID      string
	OriginalPrice decimal.Decimal
	FinalPrice    decimal.Decimal
	State         string
	Notes         string
	Terms         MinuteTerms
	Deleted       bool
	DeletedBy     *string
	DeletedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MinuteView minuta con datos legibles de vehículo, cliente y vendedor.
type MinuteView struct {
	Minute
	VehicleLabel string
	VehiclePlate string
	ClientName   string
	ClientDNI    string
	VendorName   string
}
