package repository

import (
	"context"
	"time"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// ClientRepository puerto de persistencia para Client.
type ClientRepository interface {
	Create(ctx context.Context, c *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	Update(ctx context.Context, c *entity.Client) error
	SoftDelete(ctx context.Context, id, deletedBy string, at time.Time) error
	List(ctx context.Context) ([]*entity.Client, error)
}
