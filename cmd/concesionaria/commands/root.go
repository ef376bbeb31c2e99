// Package commands CLI de administración: migraciones, cuenta premium, exportación y respaldos.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/concesionaria-api/internal/printer"
)

var out = printer.Default()

var rootCmd = &cobra.Command{
	Use:   "concesionaria",
	Short: "Administración de la API de la concesionaria",
	Long: `Tareas de mantenimiento que corren contra la misma base que la API.
La configuración se lee igual que el servidor (.env y variables de entorno).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute ejecuta el comando raíz.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	rootCmd.AddCommand(migrateCmd, premiumCmd, exportCmd, backupCmd)
}
