package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

var (
	_ repository.TrackingRepository = (*TrackingRepo)(nil)
	_ repository.DeviceRepository   = (*DeviceRepo)(nil)
)

const sessionColumns = `id, usuario_id, fecha_login, fecha_logout, ip_address, user_agent, dispositivo_id,
	COALESCE(dispositivo_info, 'null'::jsonb), duracion_segundos`

// TrackingRepo sesiones, navegación y acciones.
type TrackingRepo struct {
	q Querier
}

func NewTrackingRepository(q Querier) *TrackingRepo {
	return &TrackingRepo{q: q}
}

// OpenSession registra el login.
func (r *TrackingRepo) OpenSession(ctx context.Context, s *entity.Session) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tracking_sesiones (id, usuario_id, fecha_login, ip_address, user_agent, dispositivo_id, dispositivo_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.LoginAt, s.IP, s.UserAgent, s.DeviceID, jsonOrNil(s.DeviceInfo),
	)
	return storeErr("insert sesion", err)
}

// GetSession nil si no existe.
func (r *TrackingRepo) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	var s *entity.Session
	err := read(ctx, r.q, func(ctx context.Context) error {
		var err error
		s, err = scanSession(r.q.QueryRow(ctx, `SELECT `+sessionColumns+` FROM tracking_sesiones WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get sesion", err)
	}
	return s, nil
}

// CloseSession fija logout y duración. Una sesión ya cerrada no se reescribe.
func (r *TrackingRepo) CloseSession(ctx context.Context, id string, logoutAt time.Time, durationSeconds int64) error {
	_, err := r.q.Exec(ctx, `
		UPDATE tracking_sesiones SET fecha_logout = $2, duracion_segundos = $3
		WHERE id = $1 AND fecha_logout IS NULL`, id, logoutAt, durationSeconds)
	return storeErr("cerrar sesion", err)
}

// ListSessions sesiones recientes; userID vacío lista todas.
func (r *TrackingRepo) ListSessions(ctx context.Context, userID string, limit int) ([]*entity.Session, error) {
	var list []*entity.Session
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, `SELECT `+sessionColumns+` FROM tracking_sesiones
			WHERE ($1::uuid IS NULL OR usuario_id = $1::uuid)
			ORDER BY fecha_login DESC LIMIT $2`, nullable(userID), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			s, err := scanSession(rows)
			if err != nil {
				return err
			}
			list = append(list, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list sesiones", err)
	}
	return list, nil
}

// AppendNavigation registra la visita a una sección.
func (r *TrackingRepo) AppendNavigation(ctx context.Context, e *entity.NavigationEvent) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tracking_navegacion (id, sesion_id, usuario_id, seccion_visitada, accion, detalles, ip_address, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, nullable(e.SessionID), e.UserID, e.Section, e.Action, e.Details, e.IP, e.CreatedAt,
	)
	return storeErr("insert navegacion", err)
}

// ListNavigation navegación reciente; userID vacío lista todas.
func (r *TrackingRepo) ListNavigation(ctx context.Context, userID string, limit int) ([]*entity.NavigationEvent, error) {
	var list []*entity.NavigationEvent
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, `
			SELECT id, COALESCE(sesion_id::text, ''), usuario_id, seccion_visitada, accion, detalles, ip_address, fecha
			FROM tracking_navegacion
			WHERE ($1::uuid IS NULL OR usuario_id = $1::uuid)
			ORDER BY fecha DESC LIMIT $2`, nullable(userID), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			var e entity.NavigationEvent
			if err := rows.Scan(&e.ID, &e.SessionID, &e.UserID, &e.Section, &e.Action, &e.Details, &e.IP, &e.CreatedAt); err != nil {
				return err
			}
			list = append(list, &e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list navegacion", err)
	}
	return list, nil
}

// AppendAction registra una acción; usuario y sesión pueden faltar.
func (r *TrackingRepo) AppendAction(ctx context.Context, e *entity.ActionEvent) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tracking_acciones (id, usuario_id, sesion_id, tipo_accion, modulo, datos_accion, ip_address, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, nullable(e.UserID), nullable(e.SessionID), e.Type, e.Module, jsonOrNil(e.Data), e.IP, e.CreatedAt,
	)
	return storeErr("insert accion", err)
}

func scanSession(row scanner) (*entity.Session, error) {
	var s entity.Session
	err := row.Scan(&s.ID, &s.UserID, &s.LoginAt, &s.LogoutAt, &s.IP, &s.UserAgent, &s.DeviceID, &s.DeviceInfo, &s.DurationSeconds)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeviceRepo dispositivos.
type DeviceRepo struct {
	q Querier
}

func NewDeviceRepository(q Querier) *DeviceRepo {
	return &DeviceRepo{q: q}
}

// Touch alta o actualización del último acceso por dispositivo_id.
func (r *DeviceRepo) Touch(ctx context.Context, d *entity.Device) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO dispositivos (id, usuario_id, mac_address, dispositivo_id, modelo, plataforma, navegador,
			fecha_registro, fecha_ultimo_acceso)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (dispositivo_id) DO UPDATE
			SET fecha_ultimo_acceso = EXCLUDED.fecha_ultimo_acceso, usuario_id = EXCLUDED.usuario_id`,
		d.ID, d.UserID, d.MAC, d.DeviceID, d.Model, d.Platform, d.Browser, d.RegisteredAt, d.LastSeenAt,
	)
	return storeErr("upsert dispositivo", err)
}
