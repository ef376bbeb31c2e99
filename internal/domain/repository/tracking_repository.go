package repository

import (
	"context"
	"time"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// TrackingRepository sesiones, navegación y acciones de usuarios.
type TrackingRepository interface {
	OpenSession(ctx context.Context, s *entity.Session) error
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	CloseSession(ctx context.Context, id string, logoutAt time.Time, durationSeconds int64) error
	ListSessions(ctx context.Context, userID string, limit int) ([]*entity.Session, error)
	AppendNavigation(ctx context.Context, e *entity.NavigationEvent) error
	ListNavigation(ctx context.Context, userID string, limit int) ([]*entity.NavigationEvent, error)
	AppendAction(ctx context.Context, e *entity.ActionEvent) error
}

// DeviceRepository dispositivos conocidos.
type DeviceRepository interface {
	// Touch inserta el dispositivo si no existe; si existe actualiza el último acceso.
	Touch(ctx context.Context, d *entity.Device) error
}
