package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	app "github.com/jhoicas/concesionaria-api/internal/application/export"
)

var _ app.WorkbookWriter = ExcelWriter{}

// ExcelWriter una hoja por tabla, encabezado en negrita y fila 1 fija.
type ExcelWriter struct{}

func (ExcelWriter) Workbook(s *app.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("excel estilo: %w", err)
	}

	first := f.GetSheetName(0)
	for i, t := range s.Tables {
		sheet := sheetName(t.Name)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return nil, fmt.Errorf("excel hoja %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("excel hoja %s: %w", sheet, err)
		}
		if err := writeTable(f, sheet, t, header); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel escribir: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, t app.Table, header int) error {
	if len(t.Columns) == 0 {
		return nil
	}
	for c, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("excel %s: %w", sheet, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fmt.Errorf("excel %s: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("excel %s: %w", sheet, err)
	}

	for r, row := range t.Rows {
		for c, col := range t.Columns {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("excel %s: %w", sheet, err)
			}
		}
	}
	return nil
}

// cellValue excelize escribe números, textos, booleanos y fechas; el resto va como texto.
func cellValue(v any) any {
	switch x := v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return x
	case time.Time:
		return x.Format(time.DateTime)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// sheetName Excel limita los nombres de hoja a 31 caracteres.
func sheetName(s string) string {
	if len(s) > 31 {
		return s[:31]
	}
	return s
}
