package commands

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/postgres"
	"github.com/jhoicas/concesionaria-api/pkg/config"
	"github.com/jhoicas/concesionaria-api/pkg/logger"
)

// env recursos compartidos por los subcomandos.
type env struct {
	cfg      *config.Config
	log      *logger.Logger
	pool     *pgxpool.Pool
	db       *sql.DB
	users    *postgres.UserRepo
	trusted  *policy.AllowList
	recorder *audit.Service
}

// openEnv carga configuración y abre la base. La auditoría se procesa en línea:
// la CLI termina enseguida y no puede dejar jobs en un pool.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, out.Error("Configuración inválida", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, out.Error("No se pudo conectar a PostgreSQL", err,
			"Verificá DATABASE_URL o las variables DB_*")
	}
	trusted, err := policy.NewAllowList(cfg.Security.TrustedNetworks)
	if err != nil {
		pool.Close()
		return nil, out.Error("TRUSTED_NETWORKS inválido", err)
	}

	users := postgres.NewUserRepository(pool)
	processor := audit.NewProcessor(audit.Stores{
		Users:         users,
		Audit:         postgres.NewAuditRepository(pool),
		Notifications: postgres.NewNotificationRepository(pool),
		Alerts:        postgres.NewAlertRepository(pool),
		Tracking:      postgres.NewTrackingRepository(pool),
		Devices:       postgres.NewDeviceRepository(pool),
	}, trusted, log.Component("audit"))

	return &env{
		cfg: cfg, log: log, pool: pool, db: postgres.OpenSQL(pool), users: users, trusted: trusted,
		recorder: audit.NewService(audit.DispatcherFunc(processor.Handle), log.Component("audit")),
	}, nil
}

func (e *env) Close() {
	_ = e.db.Close()
	e.pool.Close()
}
