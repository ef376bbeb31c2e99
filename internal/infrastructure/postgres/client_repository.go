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

var _ repository.ClientRepository = (*ClientRepo)(nil)

const clientColumns = `id, nombre, apellido, dni, telefono, email, direccion, observaciones,
	eliminado, eliminado_por, fecha_eliminacion, created_at, updated_at`

// ClientRepo implementación de ClientRepository sobre PostgreSQL.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador de clientes.
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// Create persiste un cliente. DNI repetido entre clientes activos es conflicto.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO clientes (id, nombre, apellido, dni, telefono, email, direccion, observaciones, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.FirstName, c.LastName, c.DNI, c.Phone, c.Email, c.Address, c.Notes, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: domain.ConflictDuplicateKey, Field: "dni"}
		}
		return storeErr("insert cliente", err)
	}
	return nil
}

// GetByID obtiene un cliente (incluye eliminados).
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	var c *entity.Client
	err := read(ctx, r.q, func(ctx context.Context) error {
		var err error
		c, err = scanClient(r.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clientes WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get cliente", err)
	}
	return c, nil
}

// Update actualiza los datos de contacto de un cliente activo.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE clientes SET nombre = $2, apellido = $3, dni = $4, telefono = $5, email = $6, direccion = $7,
			observaciones = $8, updated_at = $9
		WHERE id = $1 AND NOT eliminado`,
		c.ID, c.FirstName, c.LastName, c.DNI, c.Phone, c.Email, c.Address, c.Notes, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: domain.ConflictDuplicateKey, Field: "dni"}
		}
		return storeErr("update cliente", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marca el cliente como eliminado y libera su DNI.
func (r *ClientRepo) SoftDelete(ctx context.Context, id, deletedBy string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE clientes SET eliminado = TRUE, eliminado_por = $2, fecha_eliminacion = $3, updated_at = $3
		WHERE id = $1 AND NOT eliminado`, id, nullable(deletedBy), at)
	if err != nil {
		return storeErr("delete cliente", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List clientes activos ordenados por apellido y nombre.
func (r *ClientRepo) List(ctx context.Context) ([]*entity.Client, error) {
	var list []*entity.Client
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, `SELECT `+clientColumns+` FROM clientes WHERE NOT eliminado ORDER BY apellido, nombre`)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			c, err := scanClient(rows)
			if err != nil {
				return err
			}
			list = append(list, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list clientes", err)
	}
	return list, nil
}

func scanClient(row scanner) (*entity.Client, error) {
	var c entity.Client
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.DNI, &c.Phone, &c.Email, &c.Address, &c.Notes,
		&c.Deleted, &c.DeletedBy, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
