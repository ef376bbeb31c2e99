package repository

import (
	"context"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindPremium devuelve la cuenta premium (habilitada o no), nil si no existe.
	FindPremium(ctx context.Context) (*entity.User, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	ListWithActivity(ctx context.Context) ([]*entity.UserActivity, error)
}

// SuspensionRepository historial de suspensiones (solo inserción).
type SuspensionRepository interface {
	Create(ctx context.Context, s *entity.Suspension) error
	MarkReactivated(ctx context.Context, userID string) error
}
