package repository

import (
	"context"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// AuditRepository registro de auditoría de solo inserción.
type AuditRepository interface {
	// Append es idempotente por ID.
	Append(ctx context.Context, e *entity.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]*entity.AuditView, error)
}

// AlertRepository alertas al usuario premium.
type AlertRepository interface {
	Create(ctx context.Context, a *entity.Alert) error
	ListRecent(ctx context.Context, premiumUserID string, limit int) ([]*entity.AlertView, error)
	MarkRead(ctx context.Context, id, premiumUserID string) error
}

// NotificationRepository notificaciones generales.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListRecent(ctx context.Context, premiumUserID string, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id, premiumUserID string) error
}
