package minute

import (
	"context"
	"fmt"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/lifecycle"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

// ReleaseVehicle cancela la minuta y devuelve el vehículo a disponible en una sola
// transacción. Solo administradores. actorRole es el rol que declara el token; la
// decisión usa el rol leído del store.
func (s *Service) ReleaseVehicle(ctx context.Context, minuteID, actorID, actorRole string, meta audit.Meta) error {
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()

	actor, _, err := policy.Load(ctx, s.users, actorID)
	if err != nil {
		return err
	}
	if actorRole != "" && policy.Role(actorRole) != actor.Role {
		s.log.Debug().Str("actor", actor.ID).Str("token_role", actorRole).Str("role", string(actor.Role)).
			Msg("minute: rol del token desactualizado")
	}
	if !policy.CanPerform(actor, policy.ReleaseVehicle, policy.Target{}) {
		return domain.ErrForbidden
	}

	var vehicleID string
	err = s.tx.Run(ctx, func(vehicles repository.VehicleRepository, minutes repository.MinuteRepository, history repository.HistoryRepository) error {
		m, err := minutes.GetForUpdate(ctx, minuteID)
		if err != nil {
			return err
		}
		if err := lifecycle.Release(m); err != nil {
			return err
		}
		vehicleID = m.VehicleID
		v, err := vehicles.GetForUpdate(ctx, m.VehicleID)
		if err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("vehículo %s: %w", m.VehicleID, domain.ErrNotFound)
		}
		if err := vehicles.SetState(ctx, v.ID, entity.VehicleAvailable); err != nil {
			return err
		}
		prev := m.State
		m.State = entity.MinuteCancelled
		m.UpdatedAt = s.now()
		if err := minutes.Update(ctx, m); err != nil {
			return err
		}
		return history.Append(ctx, historyRows(m.ID, actor.ID, m.UpdatedAt, []change{{"estado", prev, m.State}}))
	})
	if err != nil {
		return err
	}

	data := map[string]string{"minuta_id": minuteID, "vehiculo_id": vehicleID}
	s.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "LIBERACION_VEHICULO", Table: "vehiculos", RecordID: vehicleID, After: data, Meta: meta,
	})
	s.recorder.Alert(ctx, audit.AlertInput{
		Title:          "Vehículo Liberado",
		Message:        fmt.Sprintf("El administrador %s liberó el vehículo %s", actor.ID, vehicleID),
		Type:           "vehiculo_liberado",
		AffectedUserID: actor.ID,
		Data:           data,
	})
	return nil
}

// DeleteMinute baja lógica. No modifica el estado del vehículo.
func (s *Service) DeleteMinute(ctx context.Context, id, actorID string, meta audit.Meta) error {
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()

	actor, _, err := policy.Load(ctx, s.users, actorID)
	if err != nil {
		return err
	}
	m, err := s.minutes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil || m.Deleted {
		return domain.ErrNotFound
	}
	if !policy.CanPerform(actor, policy.DeleteMinute, policy.Target{OwnerID: m.VendorID}) {
		return domain.ErrForbidden
	}
	if err := s.minutes.SoftDelete(ctx, id, actor.ID, s.now()); err != nil {
		return err
	}
	s.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "ELIMINACION_MINUTA", Table: table, RecordID: id, Before: toResponse(m), Meta: meta,
	})
	return nil
}
