package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// CreateMinuteRequest entrada para crear una minuta. El vendedor es el actor autenticado.
type CreateMinuteRequest struct {
	VehicleID     string          `json:"vehiculo_id" validate:"required,uuid"`
	ClientID      string          `json:"cliente_id" validate:"required,uuid"`
	OriginalPrice decimal.Decimal `json:"precio_original"`
	FinalPrice    decimal.Decimal `json:"precio_final"`
	Notes         string          `json:"observaciones"`
	entity.MinuteTerms
}

// EditMinuteRequest patch parcial; solo se aplican los campos presentes.
type EditMinuteRequest struct {
	FinalPrice            *decimal.Decimal `json:"precio_final,omitempty"`
	State                 *string          `json:"estado,omitempty"`
	Notes                 *string          `json:"observaciones,omitempty"`
	Financing             *string          `json:"financiamiento,omitempty"`
	FinancingAdvance      *decimal.Decimal `json:"financiamiento_anticipo,omitempty"`
	FinancingInstallments *int             `json:"financiamiento_cuotas,omitempty"`
	FinancingPrice        *decimal.Decimal `json:"financiamiento_precio,omitempty"`
	TradeIn               *bool            `json:"tradein_proporciona,omitempty"`
	TradeInData           *string          `json:"tradein_datos,omitempty"`
	ReserveAmount         *decimal.Decimal `json:"reserva_monto,omitempty"`
}

// Empty indica que el patch no trae ningún campo.
func (r EditMinuteRequest) Empty() bool {
	return r.FinalPrice == nil && r.State == nil && r.Notes == nil && r.Financing == nil &&
		r.FinancingAdvance == nil && r.FinancingInstallments == nil && r.FinancingPrice == nil &&
		r.TradeIn == nil && r.TradeInData == nil && r.ReserveAmount == nil
}

// MinuteResponse salida de una minuta con los datos legibles de vehículo, cliente y vendedor.
type MinuteResponse struct {
	ID            string          `json:"id"`
	VehicleID     string          `json:"vehiculo_id"`
	ClientID      string          `json:"cliente_id"`
	VendorID      string          `json:"vendedor_id"`
	OriginalPrice decimal.Decimal `json:"precio_original"`
	FinalPrice    decimal.Decimal `json:"precio_final"`
	State         string          `json:"estado"`
	Notes         string          `json:"observaciones"`
	entity.MinuteTerms
	VehicleLabel string    `json:"vehiculo,omitempty"`
	VehiclePlate string    `json:"dominio,omitempty"`
	ClientName   string    `json:"cliente,omitempty"`
	ClientDNI    string    `json:"dni,omitempty"`
	VendorName   string    `json:"vendedor,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
