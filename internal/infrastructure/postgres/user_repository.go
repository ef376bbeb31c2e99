package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, nombre, email, password, rol, telefono, habilitado, es_premium, super_admin, created_at, updated_at`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios. Pasar pool o tx.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO usuarios (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.Enabled, u.Premium, u.SuperAdmin,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if name, ok := uniqueConstraint(err); ok {
			if name == "usuarios_un_premium" {
				return &domain.ConflictError{Reason: domain.ConflictDuplicateKey, Field: "es_premium"}
			}
			return domain.ErrEmailAlreadyExists
		}
		return storeErr("insert usuario", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID; nil si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, "get usuario por id", `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id)
}

// GetByEmail obtiene un usuario por email (sin distinguir mayúsculas).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, "get usuario por email", `SELECT `+userColumns+` FROM usuarios WHERE lower(email) = lower($1)`, email)
}

// FindPremium devuelve la cuenta premium.
func (r *UserRepo) FindPremium(ctx context.Context) (*entity.User, error) {
	return r.getOne(ctx, "get usuario premium", `SELECT `+userColumns+` FROM usuarios WHERE es_premium LIMIT 1`)
}

func (r *UserRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	var u *entity.User
	err := read(ctx, r.q, func(ctx context.Context) error {
		var err error
		u, err = scanUser(r.q.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(op, err)
	}
	return u, nil
}

// SetEnabled habilita o deshabilita un usuario; ErrUserNotFound si no existe.
func (r *UserRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := r.q.Exec(ctx, `UPDATE usuarios SET habilitado = $2, updated_at = $3 WHERE id = $1`, id, enabled, time.Now())
	if err != nil {
		return storeErr("update habilitado", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListWithActivity lista todos los usuarios con su última sesión y cantidad de minutas.
func (r *UserRepo) ListWithActivity(ctx context.Context) ([]*entity.UserActivity, error) {
	query := `
		SELECT u.id, u.nombre, u.email, u.password, u.rol, u.telefono, u.habilitado, u.es_premium, u.super_admin,
		       u.created_at, u.updated_at,
		       (SELECT MAX(s.fecha_login) FROM tracking_sesiones s WHERE s.usuario_id = u.id),
		       (SELECT COUNT(*) FROM minutas m WHERE m.vendedor_id = u.id AND NOT m.eliminado)
		FROM usuarios u
		ORDER BY u.created_at DESC`
	var list []*entity.UserActivity
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			var a entity.UserActivity
			if err := rows.Scan(
				&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Phone, &a.Enabled, &a.Premium, &a.SuperAdmin,
				&a.CreatedAt, &a.UpdatedAt, &a.LastActivity, &a.MinuteCount,
			); err != nil {
				return err
			}
			list = append(list, &a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list usuarios", err)
	}
	return list, nil
}

func scanUser(row scanner) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.Enabled, &u.Premium, &u.SuperAdmin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
