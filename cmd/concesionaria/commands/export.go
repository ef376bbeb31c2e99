package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	infraexport "github.com/jhoicas/concesionaria-api/internal/infrastructure/export"
)

var (
	exportFormat string
	exportDir    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exporta todas las tablas a JSON o Excel",
	Long: `Lee un snapshot consistente de la base y lo escribe en --dir.
Las contraseñas nunca se exportan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != "json" && exportFormat != "xlsx" {
			return out.Error("Formato desconocido", fmt.Errorf("%q", exportFormat), "Usá --format json o --format xlsx")
		}
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		out.Step("leyendo tablas")
		snap, err := infraexport.NewSQLSnapshotter(e.db).Snapshot(ctx)
		if err != nil {
			return out.Error("No se pudo leer la base", err)
		}

		var data []byte
		if exportFormat == "json" {
			data, err = json.MarshalIndent(snap, "", "  ")
		} else {
			data, err = infraexport.ExcelWriter{}.Workbook(snap)
		}
		if err != nil {
			return out.Error("No se pudo generar el archivo", err)
		}

		name := filepath.Join(exportDir, fmt.Sprintf("concesionaria_%s.%s", time.Now().Format("20060102_150405"), exportFormat))
		if err := os.WriteFile(name, data, 0o640); err != nil {
			return out.Error("No se pudo escribir el archivo", err)
		}
		for _, t := range snap.Tables {
			out.Info("  %-22s %d filas", t.Name, len(t.Rows))
		}
		out.Success("exportado en %s", name)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json | xlsx")
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "directorio de salida")
}
