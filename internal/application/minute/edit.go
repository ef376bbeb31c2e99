package minute

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/lifecycle"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

// change diferencia de un campo.
type change struct {
	field    string
	old, new string
}

// EditMinute aplica el patch completo o nada. Un cambio de estado arrastra al vehículo
// (cerrada → vendido, cancelada → disponible). Cada campo modificado deja una fila de historial.
func (s *Service) EditMinute(ctx context.Context, actorID, id string, patch dto.EditMinuteRequest, meta audit.Meta) (*dto.MinuteResponse, error) {
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()

	actor, _, err := policy.Load(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanPerform(actor, policy.EditMinute, policy.Target{}) {
		return nil, domain.ErrForbidden
	}
	if patch.Empty() {
		return nil, domain.ErrNothingToUpdate
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var before, after entity.Minute
	var changes []change
	err = s.tx.Run(ctx, func(vehicles repository.VehicleRepository, minutes repository.MinuteRepository, history repository.HistoryRepository) error {
		m, err := minutes.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil || m.Deleted {
			return domain.ErrNotFound
		}
		before = *m

		if patch.State != nil {
			vehicleState, changed, err := lifecycle.MinuteTransition(m.State, *patch.State)
			if err != nil {
				return err
			}
			if changed {
				if _, err := vehicles.GetForUpdate(ctx, m.VehicleID); err != nil {
					return err
				}
				if err := vehicles.SetState(ctx, m.VehicleID, vehicleState); err != nil {
					return err
				}
			}
		}

		changes = applyPatch(m, patch)
		if len(changes) == 0 {
			after = *m
			return nil
		}
		m.UpdatedAt = s.now()
		if err := minutes.Update(ctx, m); err != nil {
			return err
		}
		after = *m
		return history.Append(ctx, historyRows(m.ID, actor.ID, m.UpdatedAt, changes))
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.recorder.RecordAudit(ctx, audit.AuditInput{
			ActorID: actor.ID, Action: "EDICION_MINUTA", Table: table, RecordID: id,
			Before: toResponse(&before), After: toResponse(&after), Meta: meta,
		})
	}
	return toResponse(&after), nil
}

func validatePatch(p dto.EditMinuteRequest) error {
	if p.FinalPrice != nil && !p.FinalPrice.IsPositive() {
		return domain.Invalid("precio_final debe ser mayor a 0")
	}
	if p.State != nil && !lifecycle.ValidMinuteState(*p.State) {
		return domain.Invalid("estado de minuta desconocido: %s", *p.State)
	}
	for name, d := range map[string]*decimal.Decimal{
		"financiamiento_anticipo": p.FinancingAdvance,
		"financiamiento_precio":   p.FinancingPrice,
		"reserva_monto":           p.ReserveAmount,
	} {
		if d != nil && d.IsNegative() {
			return domain.Invalid("%s no puede ser negativo", name)
		}
	}
	if p.FinancingInstallments != nil && *p.FinancingInstallments <= 0 {
		return domain.Invalid("financiamiento_cuotas debe ser mayor a 0")
	}
	return nil
}

// applyPatch modifica m y devuelve los campos que realmente cambiaron.
func applyPatch(m *entity.Minute, p dto.EditMinuteRequest) []change {
	var out []change
	t := &m.Terms
	if p.FinalPrice != nil && !p.FinalPrice.Equal(m.FinalPrice) {
		out = append(out, change{"precio_final", m.FinalPrice.String(), p.FinalPrice.String()})
		m.FinalPrice = *p.FinalPrice
	}
	if p.State != nil && *p.State != m.State {
		out = append(out, change{"estado", m.State, *p.State})
		m.State = *p.State
	}
	if p.Notes != nil && *p.Notes != m.Notes {
		out = append(out, change{"observaciones", m.Notes, *p.Notes})
		m.Notes = *p.Notes
	}
	if p.Financing != nil && *p.Financing != t.Financing {
		out = append(out, change{"financiamiento", t.Financing, *p.Financing})
		t.Financing = *p.Financing
	}
	if c, ok := setNullDecimal(&t.FinancingAdvance, p.FinancingAdvance, "financiamiento_anticipo"); ok {
		out = append(out, c)
	}
	if p.FinancingInstallments != nil && (t.FinancingInstallments == nil || *t.FinancingInstallments != *p.FinancingInstallments) {
		out = append(out, change{"financiamiento_cuotas", intString(t.FinancingInstallments), strconv.Itoa(*p.FinancingInstallments)})
		n := *p.FinancingInstallments
		t.FinancingInstallments = &n
	}
	if c, ok := setNullDecimal(&t.FinancingPrice, p.FinancingPrice, "financiamiento_precio"); ok {
		out = append(out, c)
	}
	if p.TradeIn != nil && *p.TradeIn != t.TradeIn {
		out = append(out, change{"tradein_proporciona", strconv.FormatBool(t.TradeIn), strconv.FormatBool(*p.TradeIn)})
		t.TradeIn = *p.TradeIn
	}
	if p.TradeInData != nil && *p.TradeInData != t.TradeInData {
		out = append(out, change{"tradein_datos", t.TradeInData, *p.TradeInData})
		t.TradeInData = *p.TradeInData
	}
	if c, ok := setNullDecimal(&t.ReserveAmount, p.ReserveAmount, "reserva_monto"); ok {
		out = append(out, c)
	}
	return out
}

func setNullDecimal(dst *decimal.NullDecimal, v *decimal.Decimal, field string) (change, bool) {
	if v == nil || (dst.Valid && dst.Decimal.Equal(*v)) {
		return change{}, false
	}
	c := change{field, nullDecimalString(*dst), v.String()}
	*dst = decimal.NewNullDecimal(*v)
	return c, true
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func intString(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func historyRows(recordID, actorID string, at time.Time, changes []change) []*entity.HistoryEntry {
	rows := make([]*entity.HistoryEntry, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, &entity.HistoryEntry{
			ID: uuid.NewString(), Table: table, RecordID: recordID, Field: c.field,
			OldValue: c.old, NewValue: c.new, ModifiedBy: actorID, CreatedAt: at,
		})
	}
	return rows
}
