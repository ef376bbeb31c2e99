// @title                       Concesionaria API
// @version                     1.0
// @description                 Vehículos, clientes, minutas de venta y vigilancia premium.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/swaggo/swag"

	_ "github.com/jhoicas/concesionaria-api/docs"
	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/auth"
	"github.com/jhoicas/concesionaria-api/internal/application/export"
	"github.com/jhoicas/concesionaria-api/internal/application/minute"
	"github.com/jhoicas/concesionaria-api/internal/application/tracking"
	"github.com/jhoicas/concesionaria-api/internal/application/usecase"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	infraexport "github.com/jhoicas/concesionaria-api/internal/infrastructure/export"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/concesionaria-api/internal/infrastructure/pdf"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/postgres"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/queue"
	httpRouter "github.com/jhoicas/concesionaria-api/internal/interfaces/http"
	"github.com/jhoicas/concesionaria-api/pkg/config"
	"github.com/jhoicas/concesionaria-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	db := postgres.OpenSQL(pool)
	defer db.Close()
	if cfg.DB.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	trusted, err := policy.NewAllowList(cfg.Security.TrustedNetworks)
	if err != nil {
		log.Fatal().Err(err).Msg("TRUSTED_NETWORKS inválido")
	}

	userRepo := postgres.NewUserRepository(pool)
	suspensionRepo := postgres.NewSuspensionRepository(pool)
	vehicleRepo := postgres.NewVehicleRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	minuteRepo := postgres.NewMinuteRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	alertRepo := postgres.NewAlertRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	trackingRepo := postgres.NewTrackingRepository(pool)
	deviceRepo := postgres.NewDeviceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	m := metrics.New()

	// Canal lateral: auditoría, alertas y tracking fuera del camino de la petición.
	processor := audit.NewProcessor(audit.Stores{
		Users:         userRepo,
		Audit:         auditRepo,
		Notifications: notificationRepo,
		Alerts:        alertRepo,
		Tracking:      trackingRepo,
		Devices:       deviceRepo,
	}, trusted, log.Component("audit"))

	var (
		dispatcher audit.Dispatcher
		drain      func(context.Context)
	)
	if cfg.Redis.URL != "" {
		rdb, err := queue.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		q := queue.NewRedisQueue(rdb, cfg.Redis.Queue, cfg.Redis.MaxAttempts, processor, log.Component("queue"), m)
		q.Start(ctx, cfg.Fanout.Workers)
		dispatcher = q
		drain = func(context.Context) { q.Wait() }
		log.Info().Str("queue", cfg.Redis.Queue).Msg("canal de auditoría en Redis")
	} else {
		p := queue.NewPool(processor, cfg.Fanout.Workers, cfg.Fanout.Buffer, log.Component("queue"), m)
		dispatcher = p
		drain = func(ctx context.Context) {
			if err := p.Close(ctx); err != nil {
				log.Warn().Err(err).Msg("jobs pendientes descartados al apagar")
			}
		}
	}
	recorder := audit.NewService(dispatcher, log.Component("audit"))

	timeout := cfg.DB.Timeout
	trackingSvc := tracking.NewService(trackingRepo, userRepo, recorder, log.Component("tracking"), tracking.WithTimeout(timeout))
	authUC := auth.NewAuthUseCase(userRepo, trackingSvc, recorder, trusted, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Component("auth"), auth.WithTimeout(timeout))

	if cfg.Premium.Password != "" {
		created, err := authUC.EnsurePremium(ctx, auth.PremiumAccount{
			Name: cfg.Premium.Name, Email: cfg.Premium.Email, Password: cfg.Premium.Password,
		})
		if err != nil {
			log.Error().Err(err).Msg("cuenta premium")
		} else if created {
			log.Info().Str("email", cfg.Premium.Email).Msg("cuenta premium inicial creada")
		}
	}

	minuteSvc := minute.NewService(minute.Deps{
		Tx:       txRunner,
		Clients:  clientRepo,
		Minutes:  minuteRepo,
		Users:    userRepo,
		Recorder: recorder,
		Renderer: infrapdf.NewMinuteRenderer(cfg.App.Name),
		Log:      log.Component("minute"),
		Timeout:  timeout,
	})

	var sink export.Sink
	if cfg.Backup.Enabled {
		sink, err = infraexport.NewBackupSink(ctx, cfg.Backup)
		if err != nil {
			log.Fatal().Err(err).Msg("destino de respaldo")
		}
	}
	exportSvc := export.NewService(export.Deps{
		Snapshotter: infraexport.NewSQLSnapshotter(db),
		Workbook:    infraexport.ExcelWriter{},
		Sink:        sink,
		Users:       userRepo,
		Recorder:    recorder,
		Log:         log.Component("export"),
		Timeout:     30 * time.Second,
	})
	if sink != nil {
		go exportSvc.RunBackups(ctx, cfg.Backup.Interval)
	}

	app := fiber.New(httpRouter.ServerConfig(cfg.App.Name, cfg.HTTP))
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))
	app.Use(httpRouter.Metrics(m))

	// Swagger UI: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Concesionaria API",
		}))
	}
	app.Get("/docs/doc.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		UserUC:    usecase.NewUserUseCase(userRepo, suspensionRepo, recorder, log.Component("users"), timeout),
		VehicleUC: usecase.NewVehicleUseCase(vehicleRepo, userRepo, recorder, timeout),
		ClientUC:  usecase.NewClientUseCase(clientRepo, userRepo, recorder, timeout),
		SurveillanceUC: usecase.NewSurveillanceUseCase(usecase.SurveillanceStores{
			Users:         userRepo,
			Alerts:        alertRepo,
			Notifications: notificationRepo,
			Audit:         auditRepo,
			History:       historyRepo,
		}, timeout),
		Minutes:       minuteSvc,
		Tracking:      trackingSvc,
		Export:        exportSvc,
		Metrics:       m,
		JWTSecret:     cfg.JWT.Secret,
		RateBurst:     cfg.RateLimit.Burst,
		RatePerSecond: cfg.RateLimit.PerSecond,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Los workers de Redis terminan al cancelar ctx; el pool local drena su buffer.
	stop()
	drain(shutdownCtx)

	log.Info().Msg("aplicación detenida")
}
