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

var _ repository.MinuteRepository = (*MinuteRepo)(nil)

const minuteColumns = `m.id, m.vehiculo_id, m.cliente_id, m.vendedor_id, m.precio_original, m.precio_final, m.estado,
	m.observaciones, m.financiamiento, m.financiamiento_anticipo, m.financiamiento_cuotas, m.financiamiento_precio,
	m.tradein_proporciona, m.tradein_datos, m.reserva_monto, m.eliminado, m.eliminado_por, m.fecha_eliminacion,
	m.created_at, m.updated_at`

const minuteViewSelect = `SELECT ` + minuteColumns + `,
	concat_ws(' ', v.marca, v.modelo, v.version, v.anio::text), COALESCE(v.dominio, ''),
	concat_ws(' ', c.nombre, c.apellido), c.dni, u.nombre
	FROM minutas m
	JOIN vehiculos v ON v.id = m.vehiculo_id
	JOIN clientes c ON c.id = m.cliente_id
	JOIN usuarios u ON u.id = m.vendedor_id`

// MinuteRepo implementación de MinuteRepository sobre PostgreSQL.
type MinuteRepo struct {
	q Querier
}

// NewMinuteRepository construye el adaptador de minutas. Pasar pool o tx.
func NewMinuteRepository(q Querier) *MinuteRepo {
	return &MinuteRepo{q: q}
}

// Create persiste una minuta. El índice minutas_una_activa_por_vehiculo convierte una
// segunda minuta activa sobre el mismo vehículo en ConflictDuplicateMinute.
func (r *MinuteRepo) Create(ctx context.Context, m *entity.Minute) error {
	query := `
		INSERT INTO minutas (id, vehiculo_id, cliente_id, vendedor_id, precio_original, precio_final, estado,
			observaciones, financiamiento, financiamiento_anticipo, financiamiento_cuotas, financiamiento_precio,
			tradein_proporciona, tradein_datos, reserva_monto, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	t := m.Terms
	_, err := r.q.Exec(ctx, query,
		m.ID, m.VehicleID, m.ClientID, m.VendorID, m.OriginalPrice, m.FinalPrice, m.State,
		m.Notes, t.Financing, t.FinancingAdvance, t.FinancingInstallments, t.FinancingPrice,
		t.TradeIn, t.TradeInData, t.ReserveAmount, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if name, ok := uniqueConstraint(err); ok && name == "minutas_una_activa_por_vehiculo" {
			return &domain.ConflictError{Reason: domain.ConflictDuplicateMinute}
		}
		return storeErr("insert minuta", err)
	}
	return nil
}

// GetByID obtiene una minuta (incluye eliminadas).
func (r *MinuteRepo) GetByID(ctx context.Context, id string) (*entity.Minute, error) {
	var m *entity.Minute
	err := read(ctx, r.q, func(ctx context.Context) error {
		var err error
		m, err = scanMinute(r.q.QueryRow(ctx, `SELECT `+minuteColumns+` FROM minutas m WHERE m.id = $1`, id))
		return err
	})
	return oneMinute(m, err, "get minuta")
}

// GetForUpdate obtiene la minuta bloqueando la fila.
func (r *MinuteRepo) GetForUpdate(ctx context.Context, id string) (*entity.Minute, error) {
	m, err := scanMinute(r.q.QueryRow(ctx, `SELECT `+minuteColumns+` FROM minutas m WHERE m.id = $1 FOR UPDATE`, id))
	return oneMinute(m, err, "get minuta for update")
}

// GetActiveByVehicle minuta reservada o iniciada, no eliminada, del vehículo.
func (r *MinuteRepo) GetActiveByVehicle(ctx context.Context, vehicleID string) (*entity.Minute, error) {
	query := `SELECT ` + minuteColumns + ` FROM minutas m
		WHERE m.vehiculo_id = $1 AND NOT m.eliminado AND m.estado IN ('reservada', 'iniciada')
		ORDER BY m.created_at DESC LIMIT 1`
	var m *entity.Minute
	err := read(ctx, r.q, func(ctx context.Context) error {
		var err error
		m, err = scanMinute(r.q.QueryRow(ctx, query, vehicleID))
		return err
	})
	return oneMinute(m, err, "get minuta activa")
}

// Update reescribe los campos editables y el estado.
func (r *MinuteRepo) Update(ctx context.Context, m *entity.Minute) error {
	query := `
		UPDATE minutas SET precio_final = $2, estado = $3, observaciones = $4, financiamiento = $5,
			financiamiento_anticipo = $6, financiamiento_cuotas = $7, financiamiento_precio = $8,
			tradein_proporciona = $9, tradein_datos = $10, reserva_monto = $11, updated_at = $12
		WHERE id = $1 AND NOT eliminado`
	t := m.Terms
	tag, err := r.q.Exec(ctx, query,
		m.ID, m.FinalPrice, m.State, m.Notes, t.Financing,
		t.FinancingAdvance, t.FinancingInstallments, t.FinancingPrice,
		t.TradeIn, t.TradeInData, t.ReserveAmount, m.UpdatedAt,
	)
	if err != nil {
		return storeErr("update minuta", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marca la minuta como eliminada.
func (r *MinuteRepo) SoftDelete(ctx context.Context, id, deletedBy string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE minutas SET eliminado = TRUE, eliminado_por = $2, fecha_eliminacion = $3, updated_at = $3
		WHERE id = $1 AND NOT eliminado`, id, nullable(deletedBy), at)
	if err != nil {
		return storeErr("delete minuta", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List minutas no eliminadas con vehículo, cliente y vendedor.
func (r *MinuteRepo) List(ctx context.Context) ([]*entity.MinuteView, error) {
	var list []*entity.MinuteView
	err := read(ctx, r.q, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, minuteViewSelect+` WHERE NOT m.eliminado ORDER BY m.created_at DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = list[:0]
		for rows.Next() {
			v, err := scanMinuteView(rows)
			if err != nil {
				return err
			}
			list = append(list, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr("list minutas", err)
	}
	return list, nil
}

// GetView minuta con datos legibles; nil si no existe o está eliminada.
func (r *MinuteRepo) GetView(ctx context.Context, id string) (*entity.MinuteView, error) {
	var v *entity.MinuteView
	err := read(ctx, r.q, func(ctx context.Context) error {
		var err error
		v, err = scanMinuteView(r.q.QueryRow(ctx, minuteViewSelect+` WHERE m.id = $1 AND NOT m.eliminado`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get vista minuta", err)
	}
	return v, nil
}

func oneMinute(m *entity.Minute, err error, op string) (*entity.Minute, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(op, err)
	}
	return m, nil
}

func minuteDest(m *entity.Minute) []any {
	t := &m.Terms
	return []any{
		&m.ID, &m.VehicleID, &m.ClientID, &m.VendorID, &m.OriginalPrice, &m.FinalPrice, &m.State,
		&m.Notes, &t.Financing, &t.FinancingAdvance, &t.FinancingInstallments, &t.FinancingPrice,
		&t.TradeIn, &t.TradeInData, &t.ReserveAmount, &m.Deleted, &m.DeletedBy, &m.DeletedAt,
		&m.CreatedAt, &m.UpdatedAt,
	}
}

func scanMinute(row scanner) (*entity.Minute, error) {
	var m entity.Minute
	if err := row.Scan(minuteDest(&m)...); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMinuteView(row scanner) (*entity.MinuteView, error) {
	var v entity.MinuteView
	dest := append(minuteDest(&v.Minute), &v.VehicleLabel, &v.VehiclePlate, &v.ClientName, &v.ClientDNI, &v.VendorName)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &v, nil
}
