package postgres

import (
	"context"
	"encoding/json"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo registro de auditoría en la tabla auditoria.
type AuditRepo struct {
	q Querier
}

func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Append inserta la entrada. Reintentos del mismo job no duplican (ON CONFLICT por id).
func (r *AuditRepo) Append(ctx context.Context, e *entity.AuditEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO auditoria (id, usuario_id, accion, tabla_afectada, registro_id, datos_anteriores, datos_nuevos,
			ip_address, dispositivo_id, dispositivo_info, fecha_dispositivo, fecha_accion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, nullable(e.UserID), e.Action, e.Table, e.RecordID, jsonOrNil(e.Before), jsonOrNil(e.After),
		e.IP, e.DeviceID, jsonOrNil(e.DeviceInfo), e.DeviceTime, e.CreatedAt,
	)
	return storeErr("insert auditoria", err)
}

// ListRecent últimas entradas con el nombre del actor.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]*entity.AuditView, error) {
	var list []*entity.AuditView
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, `
			SELECT a.id, COALESCE(a.usuario_id::text, ''), a.accion, a.tabla_afectada, a.registro_id,
				COALESCE(a.datos_anteriores, 'null'::jsonb), COALESCE(a.datos_nuevos, 'null'::jsonb),
				a.ip_address, a.dispositivo_id, COALESCE(a.dispositivo_info, 'null'::jsonb), a.fecha_dispositivo,
				a.fecha_accion, COALESCE(u.nombre, '')
			FROM auditoria a
			LEFT JOIN usuarios u ON u.id = a.usuario_id
			ORDER BY a.fecha_accion DESC, a.id DESC
			LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			var v entity.AuditView
			if err := rows.Scan(
				&v.ID, &v.UserID, &v.Action, &v.Table, &v.RecordID, &v.Before, &v.After,
				&v.IP, &v.DeviceID, &v.DeviceInfo, &v.DeviceTime, &v.CreatedAt, &v.UserName,
			); err != nil {
				return err
			}
			list = append(list, &v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list auditoria", err)
	}
	return list, nil
}

// jsonOrNil guarda NULL en lugar de un documento vacío.
func jsonOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
