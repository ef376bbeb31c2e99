package repository

import (
	"context"
	"time"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// MinuteRepository puerto de persistencia para Minute.
type MinuteRepository interface {
	Create(ctx context.Context, m *entity.Minute) error
	GetByID(ctx context.Context, id string) (*entity.Minute, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Minute, error)
	// GetActiveByVehicle minuta no eliminada en estado activo que referencia al vehículo.
	GetActiveByVehicle(ctx context.Context, vehicleID string) (*entity.Minute, error)
	Update(ctx context.Context, m *entity.Minute) error
	SoftDelete(ctx context.Context, id, deletedBy string, at time.Time) error
	List(ctx context.Context) ([]*entity.MinuteView, error)
	GetView(ctx context.Context, id string) (*entity.MinuteView, error)
}

// HistoryRepository diferencias por campo de las ediciones.
type HistoryRepository interface {
	Append(ctx context.Context, entries []*entity.HistoryEntry) error
	ListByRecord(ctx context.Context, table, recordID string) ([]*entity.HistoryEntry, error)
}
