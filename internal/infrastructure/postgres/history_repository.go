package postgres

import (
	"context"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

var _ repository.HistoryRepository = (*HistoryRepo)(nil)

// HistoryRepo historial de cambios por campo.
type HistoryRepo struct {
	q Querier
}

func NewHistoryRepository(q Querier) *HistoryRepo {
	return &HistoryRepo{q: q}
}

// Append inserta las diferencias de una edición.
func (r *HistoryRepo) Append(ctx context.Context, entries []*entity.HistoryEntry) error {
	for _, e := range entries {
		_, err := r.q.Exec(ctx, `
			INSERT INTO historial_datos (id, tabla_afectada, registro_id, campo_modificado, valor_anterior,
				valor_nuevo, modificado_por, fecha_modificacion)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, e.Table, e.RecordID, e.Field, e.OldValue, e.NewValue, nullable(e.ModifiedBy), e.CreatedAt,
		)
		if err != nil {
			return storeErr("insert historial", err)
		}
	}
	return nil
}

// ListByRecord historial de un registro, más reciente primero.
func (r *HistoryRepo) ListByRecord(ctx context.Context, table, recordID string) ([]*entity.HistoryEntry, error) {
	var list []*entity.HistoryEntry
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, `
			SELECT id, tabla_afectada, registro_id, campo_modificado, valor_anterior, valor_nuevo,
				COALESCE(modificado_por::text, ''), fecha_modificacion
			FROM historial_datos WHERE tabla_afectada = $1 AND registro_id = $2
			ORDER BY fecha_modificacion DESC`, table, recordID)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			var e entity.HistoryEntry
			if err := rows.Scan(&e.ID, &e.Table, &e.RecordID, &e.Field, &e.OldValue, &e.NewValue, &e.ModifiedBy, &e.CreatedAt); err != nil {
				return err
			}
			list = append(list, &e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list historial", err)
	}
	return list, nil
}
