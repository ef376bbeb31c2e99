package commands

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/concesionaria-api/internal/application/auth"
	"github.com/jhoicas/concesionaria-api/internal/application/tracking"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/postgres"
)

var premiumCmd = &cobra.Command{
	Use:   "ensure-premium",
	Short: "Crea la cuenta premium con PREMIUM_EMAIL/PREMIUM_PASSWORD si no existe",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		sessions := tracking.NewService(postgres.NewTrackingRepository(e.pool), e.users, e.recorder, e.log.Component("tracking"))
		uc := auth.NewAuthUseCase(e.users, sessions, e.recorder, e.trusted, auth.JWTConfig{
			Secret: e.cfg.JWT.Secret, ExpMinutes: e.cfg.JWT.Expiration, Issuer: e.cfg.JWT.Issuer,
		}, e.log.Component("auth"), auth.WithTimeout(e.cfg.DB.Timeout))

		created, err := uc.EnsurePremium(ctx, auth.PremiumAccount{
			Name: e.cfg.Premium.Name, Email: e.cfg.Premium.Email, Password: e.cfg.Premium.Password,
		})
		if err != nil {
			return out.Error("No se pudo crear la cuenta premium", err, "Definí PREMIUM_EMAIL y PREMIUM_PASSWORD")
		}
		if !created {
			out.Info("ya existe una cuenta premium; no se hizo nada")
			return nil
		}
		out.Success("cuenta premium creada: %s", e.cfg.Premium.Email)
		return nil
	},
}
