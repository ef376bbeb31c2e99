package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/concesionaria-api/internal/domain"
)

func TestSQLSnapshotter_OmitePasswordYConvierteBytes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM usuarios`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "nombre", "password", "created_at"}).
			AddRow("u-1", []byte("Ana"), "$2a$10$hash", created))
	mock.ExpectQuery(`SELECT \* FROM vehiculos`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "precio"}).
			AddRow("v-1", []byte("18000000.00")).
			AddRow("v-2", nil))
	mock.ExpectCommit()

	snap, err := NewSQLSnapshotter(db, "usuarios", "vehiculos").Snapshot(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, snap.Tables, 2)
	users := snap.Tables[0]
	assert.Equal(t, []string{"id", "nombre", "created_at"}, users.Columns)
	require.Len(t, users.Rows, 1)
	assert.Equal(t, "Ana", users.Rows[0]["nombre"])
	assert.NotContains(t, users.Rows[0], "password")
	assert.Equal(t, created, users.Rows[0]["created_at"])

	vehicles := snap.Tables[1]
	require.Len(t, vehicles.Rows, 2)
	assert.Equal(t, "18000000.00", vehicles.Rows[0]["precio"])
	assert.Nil(t, vehicles.Rows[1]["precio"])
}

func TestSQLSnapshotter_ErrorEsStoreNoDisponible(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM usuarios`).WillReturnError(errors.New("conexión perdida"))
	mock.ExpectRollback()

	_, err = NewSQLSnapshotter(db, "usuarios").Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorContains(t, err, "conexión perdida")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSnapshotter_TablasPorDefecto(t *testing.T) {
	s := NewSQLSnapshotter(nil)
	assert.Equal(t, DefaultTables, s.tables)
	assert.Contains(t, s.tables, "minutas")
	assert.Contains(t, s.tables, "auditoria")
}
