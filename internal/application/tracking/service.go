// Package tracking libro de sesiones, navegación y acciones de usuarios.
package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

const defaultListLimit = 100

// Service abre y cierra sesiones y delega navegación/acciones al canal de auditoría.
type Service struct {
	repo     repository.TrackingRepository
	users    repository.UserRepository
	recorder audit.Recorder
	log      zerolog.Logger
	now      func() time.Time
	timeout  time.Duration
}

// Option configura el Service.
type Option func(*Service)

// WithClock reemplaza time.Now (cálculo de duración).
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithTimeout límite por operación contra el store.
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func NewService(repo repository.TrackingRepository, users repository.UserRepository, recorder audit.Recorder, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, users: users, recorder: recorder, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OpenInput datos del login.
type OpenInput struct {
	UserID     string
	IP         string
	UserAgent  string
	DeviceID   string
	DeviceInfo json.RawMessage
}

// deviceInfo campos conocidos del fingerprint que envía el cliente.
type deviceInfo struct {
	MAC      string `json:"mac"`
	Model    string `json:"modelo"`
	Platform string `json:"plataforma"`
	Browser  string `json:"navegador"`
}

// OpenSession registra la sesión y devuelve su id. El alta del dispositivo se despacha
// en segundo plano y no bloquea el login.
func (s *Service) OpenSession(ctx context.Context, in OpenInput) (string, error) {
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()

	sess := &entity.Session{
		ID:         uuid.NewString(),
		UserID:     in.UserID,
		LoginAt:    s.now(),
		IP:         in.IP,
		UserAgent:  in.UserAgent,
		DeviceID:   in.DeviceID,
		DeviceInfo: in.DeviceInfo,
	}
	if err := s.repo.OpenSession(ctx, sess); err != nil {
		return "", err
	}

	if in.DeviceID != "" {
		var info deviceInfo
		if len(in.DeviceInfo) > 0 {
			if err := json.Unmarshal(in.DeviceInfo, &info); err != nil {
				s.log.Debug().Err(err).Msg("tracking: dispositivo_info ilegible")
			}
		}
		if info.Browser == "" {
			info.Browser = in.UserAgent
		}
		s.recorder.RegisterDevice(ctx, audit.DeviceInput{
			UserID: in.UserID, DeviceID: in.DeviceID, MAC: info.MAC,
			Model: info.Model, Platform: info.Platform, Browser: info.Browser,
		})
	}
	return sess.ID, nil
}

// CloseSession fija logout y duración en segundos enteros (hacia abajo).
// Un id desconocido no es error.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()

	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil || sess.LogoutAt != nil {
		return nil
	}
	logout := s.now()
	return s.repo.CloseSession(ctx, sess.ID, logout, Duration(sess.LoginAt, logout))
}

// Duration segundos completos entre login y logout; nunca negativa.
func Duration(login, logout time.Time) int64 {
	d := int64(logout.Sub(login) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// NavigationInput visita reportada por el cliente.
type NavigationInput struct {
	SessionID string
	UserID    string
	Section   string
	Action    string
	Details   string
	IP        string
}

// RecordNavigation registra la visita (fire-and-forget).
func (s *Service) RecordNavigation(ctx context.Context, in NavigationInput) error {
	if in.Section == "" {
		return domain.Invalid("seccion requerida")
	}
	s.recorder.RecordNavigation(ctx, audit.NavigationInput(in))
	return nil
}

// ActionInput acción reportada por el cliente.
type ActionInput struct {
	UserID    string
	SessionID string
	Type      string
	Module    string
	Data      json.RawMessage
	IP        string
}

// RecordAction registra la acción (fire-and-forget).
func (s *Service) RecordAction(ctx context.Context, in ActionInput) error {
	if in.Type == "" {
		return domain.Invalid("tipo_accion requerido")
	}
	var data any
	if len(in.Data) > 0 {
		data = in.Data
	}
	s.recorder.RecordAction(ctx, audit.ActionInput{
		UserID: in.UserID, SessionID: in.SessionID, Type: in.Type, Module: in.Module, Data: data, IP: in.IP,
	})
	return nil
}

// ListSessions sesiones de un usuario; solo premium.
func (s *Service) ListSessions(ctx context.Context, actorID, userID string) ([]*entity.Session, error) {
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListSessions(ctx, userID, defaultListLimit)
}

// ListNavigation navegación de un usuario; solo premium.
func (s *Service) ListNavigation(ctx context.Context, actorID, userID string) ([]*entity.NavigationEvent, error) {
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListNavigation(ctx, userID, defaultListLimit)
}

func (s *Service) authorize(ctx context.Context, actorID string) error {
	actor, _, err := policy.Load(ctx, s.users, actorID)
	if err != nil {
		return err
	}
	if !policy.CanPerform(actor, policy.ReadSurveillance, policy.Target{}) {
		return domain.ErrForbidden
	}
	return nil
}
