package repository

import (
	"context"
	"time"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// VehicleRepository puerto de persistencia para Vehicle. Los métodos *ForUpdate bloquean la
// fila y solo tienen sentido dentro de una transacción.
type VehicleRepository interface {
	Create(ctx context.Context, v *entity.Vehicle) error
	GetByID(ctx context.Context, id string) (*entity.Vehicle, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Vehicle, error)
	Update(ctx context.Context, v *entity.Vehicle) error
	SetState(ctx context.Context, id, state string) error
	SoftDelete(ctx context.Context, id, deletedBy string, at time.Time) error
	List(ctx context.Context) ([]*entity.Vehicle, error)
}
