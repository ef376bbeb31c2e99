package postgres

import (
	"context"

	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

var (
	_ repository.AlertRepository        = (*AlertRepo)(nil)
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
)

// AlertRepo alertas_premium.
type AlertRepo struct {
	q Querier
}

func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

// Create persiste una alerta para el usuario premium.
func (r *AlertRepo) Create(ctx context.Context, a *entity.Alert) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO alertas_premium (id, usuario_premium_id, titulo, mensaje, tipo_alerta, usuario_afectado_id,
			datos_adicionales, leida, fecha_creacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		a.ID, a.PremiumUserID, a.Title, a.Message, a.Type, nullable(a.AffectedUserID), jsonOrNil(a.Data), a.Read, a.CreatedAt,
	)
	return storeErr("insert alerta", err)
}

// ListRecent últimas alertas del usuario premium con el nombre del usuario afectado.
func (r *AlertRepo) ListRecent(ctx context.Context, premiumUserID string, limit int) ([]*entity.AlertView, error) {
	var list []*entity.AlertView
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, `
			SELECT a.id, a.usuario_premium_id, a.titulo, a.mensaje, a.tipo_alerta,
				COALESCE(a.usuario_afectado_id::text, ''), COALESCE(a.datos_adicionales, 'null'::jsonb),
				a.leida, a.fecha_creacion, COALESCE(u.nombre, '')
			FROM alertas_premium a
			LEFT JOIN usuarios u ON u.id = a.usuario_afectado_id
			WHERE a.usuario_premium_id = $1
			ORDER BY a.fecha_creacion DESC
			LIMIT $2`, premiumUserID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			var v entity.AlertView
			if err := rows.Scan(
				&v.ID, &v.PremiumUserID, &v.Title, &v.Message, &v.Type,
				&v.AffectedUserID, &v.Data, &v.Read, &v.CreatedAt, &v.AffectedUserName,
			); err != nil {
				return err
			}
			list = append(list, &v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list alertas", err)
	}
	return list, nil
}

// MarkRead marca la alerta como leída; ErrNotFound si no pertenece al usuario premium.
func (r *AlertRepo) MarkRead(ctx context.Context, id, premiumUserID string) error {
	return markRead(ctx, r.q, "alertas_premium", id, premiumUserID)
}

// NotificationRepo notificaciones.
type NotificationRepo struct {
	q Querier
}

func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create persiste una notificación.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO notificaciones (id, usuario_premium_id, titulo, mensaje, tipo, leida, fecha_creacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		n.ID, n.PremiumUserID, n.Title, n.Message, n.Type, n.Read, n.CreatedAt,
	)
	return storeErr("insert notificacion", err)
}

// ListRecent últimas notificaciones del usuario premium.
func (r *NotificationRepo) ListRecent(ctx context.Context, premiumUserID string, limit int) ([]*entity.Notification, error) {
	var list []*entity.Notification
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, `
			SELECT id, usuario_premium_id, titulo, mensaje, tipo, leida, fecha_creacion
			FROM notificaciones WHERE usuario_premium_id = $1
			ORDER BY fecha_creacion DESC LIMIT $2`, premiumUserID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			var n entity.Notification
			if err := rows.Scan(&n.ID, &n.PremiumUserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
				return err
			}
			list = append(list, &n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list notificaciones", err)
	}
	return list, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, premiumUserID string) error {
	return markRead(ctx, r.q, "notificaciones", id, premiumUserID)
}

// markRead table es una constante del paquete, nunca entrada del usuario.
func markRead(ctx context.Context, q Querier, table, id, premiumUserID string) error {
	tag, err := q.Exec(ctx, `UPDATE `+table+` SET leida = TRUE WHERE id = $1 AND usuario_premium_id = $2`, id, premiumUserID)
	if err != nil {
		return storeErr("marcar leida "+table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
