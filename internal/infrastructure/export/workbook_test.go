package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	app "github.com/jhoicas/concesionaria-api/internal/application/export"
)

func TestExcelWriter_UnaHojaPorTabla(t *testing.T) {
	snap := &app.Snapshot{Tables: []app.Table{
		{
			Name:    "vehiculos",
			Columns: []string{"id", "marca", "anio", "vendido", "created_at"},
			Rows: []map[string]any{
				{"id": "v-1", "marca": "Toyota", "anio": int64(2023), "vendido": false, "created_at": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
				{"id": "v-2", "marca": nil},
			},
		},
		{Name: "clientes", Columns: []string{"id", "dni"}, Rows: []map[string]any{{"id": "c-1", "dni": "30111222"}}},
		{Name: "suspensiones"},
	}}

	data, err := ExcelWriter{}.Workbook(snap)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"vehiculos", "clientes", "suspensiones"}, f.GetSheetList())

	rows, err := f.GetRows("vehiculos")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "marca", "anio", "vendido", "created_at"}, rows[0])
	assert.Equal(t, "Toyota", rows[1][1])
	assert.Equal(t, "2023", rows[1][2])
	assert.Equal(t, "2024-01-02 03:04:05", rows[1][4])
	assert.Equal(t, []string{"v-2"}, rows[2])

	rows, err = f.GetRows("clientes")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "dni"}, {"c-1", "30111222"}}, rows)
}

func TestSheetName_Limite(t *testing.T) {
	assert.Equal(t, "minutas", sheetName("minutas"))
	assert.Len(t, sheetName("una_tabla_con_un_nombre_demasiado_largo"), 31)
}
