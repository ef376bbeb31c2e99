package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/concesionaria-api/pkg/ids"
)

// AuditInput una acción a registrar. Before y After se serializan a JSON; nil se guarda como NULL.
type AuditInput struct {
	ActorID  string
	Action   string
	Table    string
	RecordID string
	Before   any
	After    any
	Meta     Meta
}

// NavigationInput visita a una sección.
type NavigationInput struct {
	SessionID string
	UserID    string
	Section   string
	Action    string
	Details   string
	IP        string
}

// ActionInput acción discreta; UserID vacío para acciones anónimas.
type ActionInput struct {
	UserID    string
	SessionID string
	Type      string
	Module    string
	Data      any
	IP        string
}

// AlertInput alerta explícita al usuario premium.
type AlertInput struct {
	Title          string
	Message        string
	Type           string
	AffectedUserID string
	Data           any
}

// DeviceInput dispositivo visto en un login.
type DeviceInput struct {
	UserID   string
	DeviceID string
	MAC      string
	Model    string
	Platform string
	Browser  string
}

// Recorder canal lateral de auditoría y alertas. Ningún método devuelve error:
// los fallos se registran en el log y nunca alteran la operación principal.
type Recorder interface {
	RecordAudit(ctx context.Context, in AuditInput)
	RecordNavigation(ctx context.Context, in NavigationInput)
	RecordAction(ctx context.Context, in ActionInput)
	Alert(ctx context.Context, in AlertInput)
	RegisterDevice(ctx context.Context, in DeviceInput)
}

var _ Recorder = (*Service)(nil)

// Service implementa Recorder despachando jobs a un Dispatcher.
type Service struct {
	d   Dispatcher
	log zerolog.Logger
	now func() time.Time
}

// Option configura el Service.
type Option func(*Service)

// WithClock reemplaza time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService construye el recorder sobre el dispatcher dado.
func NewService(d Dispatcher, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{d: d, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) RecordAudit(ctx context.Context, in AuditInput) {
	at := s.now()
	s.dispatch(ctx, JobAudit, auditPayload{
		ID:       ids.At(at),
		UserID:   in.ActorID,
		Action:   in.Action,
		Table:    in.Table,
		RecordID: in.RecordID,
		Before:   s.raw(in.Before),
		After:    s.raw(in.After),
		Meta:     in.Meta,
		At:       at,
	})
}

func (s *Service) RecordNavigation(ctx context.Context, in NavigationInput) {
	s.dispatch(ctx, JobNavigation, navigationPayload{
		ID:        uuid.NewString(),
		SessionID: in.SessionID,
		UserID:    in.UserID,
		Section:   in.Section,
		Action:    in.Action,
		Details:   in.Details,
		IP:        in.IP,
		At:        s.now(),
	})
}

func (s *Service) RecordAction(ctx context.Context, in ActionInput) {
	s.dispatch(ctx, JobAction, actionPayload{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		SessionID: in.SessionID,
		Type:      in.Type,
		Module:    in.Module,
		Data:      s.raw(in.Data),
		IP:        in.IP,
		At:        s.now(),
	})
}

func (s *Service) Alert(ctx context.Context, in AlertInput) {
	s.dispatch(ctx, JobAlert, alertPayload{
		ID:             uuid.NewString(),
		Title:          in.Title,
		Message:        in.Message,
		Type:           in.Type,
		AffectedUserID: in.AffectedUserID,
		Data:           s.raw(in.Data),
		At:             s.now(),
	})
}

func (s *Service) RegisterDevice(ctx context.Context, in DeviceInput) {
	if in.DeviceID == "" || in.UserID == "" {
		return
	}
	s.dispatch(ctx, JobDevice, devicePayload{
		ID:       uuid.NewString(),
		UserID:   in.UserID,
		DeviceID: in.DeviceID,
		MAC:      in.MAC,
		Model:    in.Model,
		Platform: in.Platform,
		Browser:  in.Browser,
		At:       s.now(),
	})
}

// dispatch desacopla el job del ciclo de vida de la petición.
func (s *Service) dispatch(ctx context.Context, typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("type", typ).Msg("audit: payload no serializable")
		return
	}
	if err := s.d.Dispatch(context.WithoutCancel(ctx), Job{Type: typ, Payload: data}); err != nil {
		s.log.Warn().Err(err).Str("type", typ).Msg("audit: job descartado")
	}
}

func (s *Service) raw(v any) json.RawMessage {
	switch t := v.(type) {
	case nil:
		return nil
	case json.RawMessage:
		return t
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn().Err(err).Msg("audit: snapshot no serializable")
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	return data
}
