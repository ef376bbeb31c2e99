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

var _ repository.VehicleRepository = (*VehicleRepo)(nil)

const vehicleColumns = `id, tipo, marca, modelo, version, anio, condicion, precio, dominio, kilometraje,
	observaciones, imagen, estado, eliminado, eliminado_por, fecha_eliminacion, created_at, updated_at`

// VehicleRepo implementación de VehicleRepository sobre PostgreSQL (usable con pool o tx).
type VehicleRepo struct {
	q Querier
}

// NewVehicleRepository construye el adaptador de vehículos. Pasar pool o tx (Querier).
func NewVehicleRepository(q Querier) *VehicleRepo {
	return &VehicleRepo{q: q}
}

// Create persiste un vehículo nuevo.
func (r *VehicleRepo) Create(ctx context.Context, v *entity.Vehicle) error {
	query := `
		INSERT INTO vehiculos (id, tipo, marca, modelo, version, anio, condicion, precio, dominio, kilometraje,
			observaciones, imagen, estado, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		v.ID, v.Type, v.Brand, v.Model, v.Version, v.Year, v.Condition, v.Price, nullable(v.Plate), v.Mileage,
		v.Notes, v.Image, v.State, v.CreatedAt, v.UpdatedAt,
	)
	return storeErr("insert vehiculo", err)
}

// GetByID obtiene un vehículo (incluye eliminados; el llamador decide).
func (r *VehicleRepo) GetByID(ctx context.Context, id string) (*entity.Vehicle, error) {
	var v *entity.Vehicle
	err := read(ctx, r.q, func(ctx context.Context) error {
		var err error
		v, err = scanVehicle(r.q.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehiculos WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get vehiculo", err)
	}
	return v, nil
}

// GetForUpdate obtiene el vehículo y bloquea la fila (SELECT FOR UPDATE).
func (r *VehicleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Vehicle, error) {
	v, err := scanVehicle(r.q.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehiculos WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get vehiculo for update", err)
	}
	return v, nil
}

// Update actualiza los datos descriptivos. El estado se cambia solo con SetState.
func (r *VehicleRepo) Update(ctx context.Context, v *entity.Vehicle) error {
	query := `
		UPDATE vehiculos SET tipo = $2, marca = $3, modelo = $4, version = $5, anio = $6, condicion = $7,
			precio = $8, dominio = $9, kilometraje = $10, observaciones = $11, imagen = $12, updated_at = $13
		WHERE id = $1 AND NOT eliminado`
	tag, err := r.q.Exec(ctx, query,
		v.ID, v.Type, v.Brand, v.Model, v.Version, v.Year, v.Condition,
		v.Price, nullable(v.Plate), v.Mileage, v.Notes, v.Image, v.UpdatedAt,
	)
	if err != nil {
		return storeErr("update vehiculo", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetState cambia el estado del vehículo.
func (r *VehicleRepo) SetState(ctx context.Context, id, state string) error {
	tag, err := r.q.Exec(ctx, `UPDATE vehiculos SET estado = $2, updated_at = now() WHERE id = $1`, id, state)
	if err != nil {
		return storeErr("update estado vehiculo", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marca el vehículo como eliminado.
func (r *VehicleRepo) SoftDelete(ctx context.Context, id, deletedBy string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE vehiculos SET eliminado = TRUE, eliminado_por = $2, fecha_eliminacion = $3, updated_at = $3
		WHERE id = $1 AND NOT eliminado`, id, nullable(deletedBy), at)
	if err != nil {
		return storeErr("delete vehiculo", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List vehículos no eliminados, más recientes primero.
func (r *VehicleRepo) List(ctx context.Context) ([]*entity.Vehicle, error) {
	var list []*entity.Vehicle
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, `SELECT `+vehicleColumns+` FROM vehiculos WHERE NOT eliminado ORDER BY created_at DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			v, err := scanVehicle(rows)
			if err != nil {
				return err
			}
			list = append(list, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list vehiculos", err)
	}
	return list, nil
}

func scanVehicle(row scanner) (*entity.Vehicle, error) {
	var v entity.Vehicle
	var plate *string
	err := row.Scan(
		&v.ID, &v.Type, &v.Brand, &v.Model, &v.Version, &v.Year, &v.Condition, &v.Price, &plate, &v.Mileage,
		&v.Notes, &v.Image, &v.State, &v.Deleted, &v.DeletedBy, &v.DeletedAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Plate = deref(plate)
	return &v, nil
}
