package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/concesionaria-api/internal/application/auth"
	"github.com/jhoicas/concesionaria-api/internal/application/export"
	"github.com/jhoicas/concesionaria-api/internal/application/minute"
	"github.com/jhoicas/concesionaria-api/internal/application/tracking"
	"github.com/jhoicas/concesionaria-api/internal/application/usecase"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	UserUC         *usecase.UserUseCase
	VehicleUC      *usecase.VehicleUseCase
	ClientUC       *usecase.ClientUseCase
	SurveillanceUC *usecase.SurveillanceUseCase
	Minutes        *minute.Service
	Tracking       *tracking.Service
	Export         *export.Service
	Metrics        *metrics.Metrics
	JWTSecret      string
	RateBurst      int
	RatePerSecond  int
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", MetricsHandler(deps.Metrics))
	}

	api := app.Group("/api")
	requireAuth := AuthMiddleware(deps.JWTSecret)
	premiumOnly := RequireRole(string(policy.RolePremium))

	// Auth (público, con límite por IP)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth", RateLimit(deps.RateBurst, deps.RatePerSecond))
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", requireAuth, authHandler.Logout)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", requireAuth)

	// Usuarios (premium)
	userHandler := NewUserHandler(deps.UserUC)
	users := protected.Group("/usuarios", premiumOnly)
	users.Post("/crear-admin", authHandler.CreateAdmin)
	users.Get("/todos", userHandler.List)
	users.Post("/:id/suspender", userHandler.Suspend)
	users.Post("/:id/reactivar", userHandler.Reactivate)
	users.Delete("/:id", userHandler.Delete)

	// Vehículos
	vehicleHandler := NewVehicleHandler(deps.VehicleUC)
	vehicles := protected.Group("/vehiculos")
	vehicles.Get("/", vehicleHandler.List)
	vehicles.Post("/", vehicleHandler.Create)
	vehicles.Put("/:id", vehicleHandler.Update)
	vehicles.Delete("/:id", vehicleHandler.Delete)

	// Clientes
	clientHandler := NewClientHandler(deps.ClientUC)
	clients := protected.Group("/clientes")
	clients.Get("/", clientHandler.List)
	clients.Post("/", clientHandler.Create)
	clients.Put("/:id", clientHandler.Update)
	clients.Delete("/:id", clientHandler.Delete)

	// Minutas
	minuteHandler := NewMinuteHandler(deps.Minutes)
	minutes := protected.Group("/minutas")
	minutes.Get("/", minuteHandler.List)
	minutes.Post("/", minuteHandler.Create)
	minutes.Get("/:id", minuteHandler.Get)
	minutes.Put("/:id", minuteHandler.Update)
	minutes.Delete("/:id", minuteHandler.Delete)
	minutes.Get("/:id/pdf", minuteHandler.PDF)
	minutes.Post("/:id/liberar-vehiculo", minuteHandler.Release)

	// Tracking: cualquier usuario reporta; solo premium consulta
	trackingHandler := NewTrackingHandler(deps.Tracking)
	tr := protected.Group("/tracking")
	tr.Post("/navegacion", trackingHandler.Navigation)
	tr.Post("/accion", trackingHandler.Action)
	tr.Get("/sesiones/:usuario_id", premiumOnly, trackingHandler.Sessions)
	tr.Get("/navegacion/:usuario_id", premiumOnly, trackingHandler.NavigationLog)

	// Vigilancia (premium)
	survHandler := NewSurveillanceHandler(deps.SurveillanceUC)
	protected.Get("/alertas-premium", premiumOnly, survHandler.Alerts)
	protected.Post("/alertas-premium/:id/leida", premiumOnly, survHandler.MarkAlertRead)
	protected.Get("/notificaciones", premiumOnly, survHandler.Notifications)
	protected.Post("/notificaciones/:id/leida", premiumOnly, survHandler.MarkNotificationRead)
	protected.Get("/auditoria", premiumOnly, survHandler.Audit)
	protected.Get("/historial/:tabla/:registroId", premiumOnly, survHandler.History)

	// Exportación (premium)
	if deps.Export != nil {
		exportHandler := NewExportHandler(deps.Export)
		protected.Get("/exportar-datos", premiumOnly, exportHandler.JSON)
		protected.Get("/exportar-excel", premiumOnly, exportHandler.Excel)
	}
}
