// Package minute ciclo de vida de las minutas y su efecto sobre el estado del vehículo.
package minute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/lifecycle"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

const table = "minutas"

// TxRunner ejecuta fn dentro de una transacción; un error de fn revierte todo.
type TxRunner interface {
	Run(ctx context.Context, fn func(vehicles repository.VehicleRepository, minutes repository.MinuteRepository, history repository.HistoryRepository) error) error
}

// Renderer genera el documento imprimible de una minuta.
type Renderer interface {
	RenderMinute(ctx context.Context, m *entity.MinuteView) ([]byte, error)
}

// Deps dependencias del Service.
type Deps struct {
	Tx       TxRunner
	Clients  repository.ClientRepository
	Minutes  repository.MinuteRepository
	Users    repository.UserRepository
	Recorder audit.Recorder
	Renderer Renderer
	Log      zerolog.Logger
	Timeout  time.Duration
	Now      func() time.Time
}

// Service casos de uso de minutas.
type Service struct {
	tx       TxRunner
	clients  repository.ClientRepository
	minutes  repository.MinuteRepository
	users    repository.UserRepository
	recorder audit.Recorder
	renderer Renderer
	log      zerolog.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewService(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		tx: d.Tx, clients: d.Clients, minutes: d.Minutes, users: d.Users,
		recorder: d.Recorder, renderer: d.Renderer, log: d.Log, timeout: d.Timeout, now: d.Now,
	}
}

// ─── CreateMinute ─────────────────────────────────────────────────────────────

// CreateMinute reserva un vehículo disponible para un cliente. La verificación de
// disponibilidad y las dos escrituras ocurren en una sola transacción con el vehículo
// bloqueado; los rechazos por conflicto quedan auditados y alertados.
func (s *Service) CreateMinute(ctx context.Context, actorID string, in dto.CreateMinuteRequest, meta audit.Meta) (*dto.MinuteResponse, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()

	actor, _, err := policy.Load(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil || client.Deleted {
		return nil, fmt.Errorf("cliente %s: %w", in.ClientID, domain.ErrNotFound)
	}

	now := s.now()
	m := &entity.Minute{
		ID:            uuid.NewString(),
		VehicleID:     in.VehicleID,
		ClientID:      in.ClientID,
		VendorID:      actor.ID,
		OriginalPrice: in.OriginalPrice,
		FinalPrice:    in.FinalPrice,
		State:         entity.MinuteReserved,
		Notes:         in.Notes,
		Terms:         in.MinuteTerms,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var vehicleState string
	err = s.tx.Run(ctx, func(vehicles repository.VehicleRepository, minutes repository.MinuteRepository, _ repository.HistoryRepository) error {
		v, err := vehicles.GetForUpdate(ctx, in.VehicleID)
		if err != nil {
			return err
		}
		active, err := minutes.GetActiveByVehicle(ctx, in.VehicleID)
		if err != nil {
			return err
		}
		if v != nil {
			vehicleState = v.State
		}
		if err := lifecycle.Sellable(v, active); err != nil {
			return err
		}
		if err := minutes.Create(ctx, m); err != nil {
			return err
		}
		return vehicles.SetState(ctx, v.ID, entity.VehicleReserved)
	})
	if err != nil {
		var ce *domain.ConflictError
		if errors.As(err, &ce) {
			s.rejectCreate(ctx, actor, in, ce, vehicleState, meta)
		}
		return nil, err
	}

	s.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "CREACION_MINUTA", Table: table, RecordID: m.ID, After: toResponse(m), Meta: meta,
	})
	s.recorder.Alert(ctx, audit.AlertInput{
		Title:          "Nueva Minuta Creada",
		Message:        fmt.Sprintf("Se ha creado una nueva minuta para el vehículo %s - Vendedor: %s", in.VehicleID, actor.ID),
		Type:           "nueva_minuta",
		AffectedUserID: actor.ID,
		Data:           map[string]string{"minuta_id": m.ID, "vehiculo_id": in.VehicleID, "cliente_id": in.ClientID},
	})
	return toResponse(m), nil
}

// rejectCreate deja registro del intento fallido. Si el rechazo vino del índice único
// (carrera perdida contra otra transacción) se completa el id de la minuta ganadora.
func (s *Service) rejectCreate(ctx context.Context, actor policy.Actor, in dto.CreateMinuteRequest, ce *domain.ConflictError, vehicleState string, meta audit.Meta) {
	if ce.MinuteID == "" {
		if active, err := s.minutes.GetActiveByVehicle(ctx, in.VehicleID); err == nil && active != nil {
			ce.MinuteID = active.ID
		}
	}
	if ce.CurrentState == "" {
		ce.CurrentState = vehicleState
	}
	data := map[string]string{"vehiculo_id": in.VehicleID, "estado_actual": ce.CurrentState}
	if ce.MinuteID != "" {
		data["minuta_existente_id"] = ce.MinuteID
	}

	switch ce.Reason {
	case domain.ConflictNotAvailable:
		s.recorder.RecordAudit(ctx, audit.AuditInput{
			ActorID: actor.ID, Action: "INTENTO_VENDER_NO_DISPONIBLE", Table: "vehiculos", RecordID: in.VehicleID, After: data, Meta: meta,
		})
		s.recorder.Alert(ctx, audit.AlertInput{
			Title:          "Intento de Venta Duplicada",
			Message:        fmt.Sprintf("El vendedor %s intentó vender un vehículo no disponible (ID: %s)", actor.ID, in.VehicleID),
			Type:           "venta_duplicada",
			AffectedUserID: actor.ID,
			Data:           data,
		})
	case domain.ConflictDuplicateMinute:
		s.recorder.RecordAudit(ctx, audit.AuditInput{
			ActorID: actor.ID, Action: "INTENTO_MINUTA_DUPLICADA", Table: table, RecordID: ce.MinuteID, After: data, Meta: meta,
		})
		s.recorder.Alert(ctx, audit.AlertInput{
			Title:          "Intento de Minuta Duplicada",
			Message:        fmt.Sprintf("El vendedor %s intentó crear otra minuta para el mismo vehículo (ID: %s)", actor.ID, in.VehicleID),
			Type:           "minuta_duplicada",
			AffectedUserID: actor.ID,
			Data:           data,
		})
	}
}

func validateCreate(in dto.CreateMinuteRequest) error {
	switch {
	case in.VehicleID == "":
		return domain.Invalid("vehiculo_id requerido")
	case in.ClientID == "":
		return domain.Invalid("cliente_id requerido")
	case !in.OriginalPrice.IsPositive():
		return domain.Invalid("precio_original debe ser mayor a 0")
	case !in.FinalPrice.IsPositive():
		return domain.Invalid("precio_final debe ser mayor a 0")
	}
	return validateTerms(in.MinuteTerms)
}

func validateTerms(t entity.MinuteTerms) error {
	if t.FinancingAdvance.Valid && t.FinancingAdvance.Decimal.IsNegative() {
		return domain.Invalid("financiamiento_anticipo no puede ser negativo")
	}
	if t.FinancingPrice.Valid && t.FinancingPrice.Decimal.IsNegative() {
		return domain.Invalid("financiamiento_precio no puede ser negativo")
	}
	if t.ReserveAmount.Valid && t.ReserveAmount.Decimal.IsNegative() {
		return domain.Invalid("reserva_monto no puede ser negativo")
	}
	if t.FinancingInstallments != nil && *t.FinancingInstallments <= 0 {
		return domain.Invalid("financiamiento_cuotas debe ser mayor a 0")
	}
	return nil
}
