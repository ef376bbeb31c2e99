package postgres

import (
	"context"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

var _ repository.SuspensionRepository = (*SuspensionRepo)(nil)

// SuspensionRepo historial de suspensiones sobre PostgreSQL.
type SuspensionRepo struct {
	q Querier
}

// NewSuspensionRepository construye el adaptador.
func NewSuspensionRepository(q Querier) *SuspensionRepo {
	return &SuspensionRepo{q: q}
}

// Create agrega un registro de suspensión.
func (r *SuspensionRepo) Create(ctx context.Context, s *entity.Suspension) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO suspensiones (id, usuario_id, motivo, mensaje, duracion, suspendido_por, fecha_suspension)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.Reason, s.Message, s.Duration, nullable(s.SuspendedBy), s.SuspendedAt,
	)
	return storeErr("insert suspension", err)
}

// MarkReactivated cierra la última suspensión abierta del usuario.
func (r *SuspensionRepo) MarkReactivated(ctx context.Context, userID string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE suspensiones SET fecha_reactivacion = now()
		WHERE id = (
			SELECT id FROM suspensiones
			WHERE usuario_id = $1 AND fecha_reactivacion IS NULL
			ORDER BY fecha_suspension DESC LIMIT 1
		)`, userID)
	return storeErr("update suspension", err)
}
