// Package export adaptadores de la exportación: lector SQL, libro Excel y destinos de respaldo.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	app "github.com/jhoicas/concesionaria-api/internal/application/export"
	"github.com/jhoicas/concesionaria-api/internal/domain"
)

// DefaultTables tablas exportables en orden de dependencia.
var DefaultTables = []string{
	"usuarios", "vehiculos", "clientes", "minutas", "historial_datos", "auditoria",
	"notificaciones", "alertas_premium", "dispositivos", "tracking_sesiones",
	"tracking_navegacion", "tracking_acciones", "suspensiones",
}

// omitted columnas que nunca salen en una exportación.
var omitted = map[string]map[string]bool{
	"usuarios": {"password": true},
}

var _ app.Snapshotter = (*SQLSnapshotter)(nil)

// SQLSnapshotter lee las tablas por database/sql dentro de una transacción de solo lectura,
// así todas ven el mismo estado.
type SQLSnapshotter struct {
	db     *sql.DB
	tables []string
	now    func() time.Time
}

// NewSQLSnapshotter tables vacío usa DefaultTables. Los nombres nunca vienen del usuario.
func NewSQLSnapshotter(db *sql.DB, tables ...string) *SQLSnapshotter {
	if len(tables) == 0 {
		tables = DefaultTables
	}
	return &SQLSnapshotter{db: db, tables: tables, now: time.Now}
}

func (s *SQLSnapshotter) Snapshot(ctx context.Context) (*app.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, unavailable("snapshot begin", err)
	}
	defer tx.Rollback()

	snap := &app.Snapshot{TakenAt: s.now()}
	for _, name := range s.tables {
		t, err := readTable(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		snap.Tables = append(snap.Tables, *t)
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("snapshot commit", err)
	}
	return snap, nil
}

func readTable(ctx context.Context, tx *sql.Tx, name string) (*app.Table, error) {
	rows, err := tx.QueryContext(ctx, "SELECT * FROM "+name)
	if err != nil {
		return nil, unavailable("snapshot "+name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, unavailable("snapshot "+name, err)
	}
	skip := omitted[name]
	t := &app.Table{Name: name}
	for _, c := range cols {
		if !skip[c] {
			t.Columns = append(t.Columns, c)
		}
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, unavailable("snapshot "+name, err)
		}
		row := make(map[string]any, len(t.Columns))
		for i, c := range cols {
			if skip[c] {
				continue
			}
			row[c] = plain(vals[i])
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("snapshot "+name, err)
	}
	return t, nil
}

// plain convierte []byte (texto, numeric, jsonb) a string para que el JSON sea legible.
func plain(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
}
