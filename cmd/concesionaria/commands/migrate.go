package commands

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/concesionaria-api/internal/infrastructure/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones pendientes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		out.Step("aplicando migraciones")
		if err := postgres.Migrate(ctx, e.db); err != nil {
			return out.Error("Falló la migración", err)
		}
		out.Success("esquema al día")
		return nil
	},
}
