package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/concesionaria-api/internal/application/apptest"
	"github.com/jhoicas/concesionaria-api/internal/application/audit/audittest"
	"github.com/jhoicas/concesionaria-api/internal/application/auth"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/application/export"
	"github.com/jhoicas/concesionaria-api/internal/application/minute"
	"github.com/jhoicas/concesionaria-api/internal/application/tracking"
	"github.com/jhoicas/concesionaria-api/internal/application/usecase"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	infraexport "github.com/jhoicas/concesionaria-api/internal/infrastructure/export"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/metrics"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/concesionaria-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/concesionaria-api/pkg/jwt"
)

type staticSnapshot struct{}

func (staticSnapshot) Snapshot(context.Context) (*export.Snapshot, error) {
	return &export.Snapshot{
		TakenAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Tables: []export.Table{{
			Name: "vehiculos", Columns: []string{"id", "marca"},
			Rows: []map[string]any{{"id": "v-1", "marca": "Toyota"}},
		}},
	}, nil
}

type apiFixture struct {
	app     *fiber.App
	store   *apptest.Store
	rec     *audittest.Recorder
	metrics *metrics.Metrics
	vendor  *entity.User
	admin   *entity.User
	premium *entity.User
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := apptest.NewStore()
	rec := audittest.New()
	log := zerolog.Nop()
	m := metrics.New()

	track := tracking.NewService(store.TrackingRepo(), store.Users(), rec, log, tracking.WithTimeout(time.Second))
	authUC := auth.NewAuthUseCase(store.Users(), track, rec, policy.DefaultAllowList(),
		auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}, log,
		auth.WithBcryptCost(bcrypt.MinCost), auth.WithTimeout(time.Second))

	app := fiber.New()
	app.Use(apphttp.Metrics(m))
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    authUC,
		UserUC:    usecase.NewUserUseCase(store.Users(), store.SuspensionRepo(), rec, log, time.Second),
		VehicleUC: usecase.NewVehicleUseCase(store.Vehicles(), store.Users(), rec, time.Second),
		ClientUC:  usecase.NewClientUseCase(store.Clients(), store.Users(), rec, time.Second),
		SurveillanceUC: usecase.NewSurveillanceUseCase(usecase.SurveillanceStores{
			Users: store.Users(), Alerts: store.AlertRepo(), Notifications: store.NotificationRepo(),
			Audit: store.AuditRepo(), History: store.HistoryRepo(),
		}, time.Second),
		Minutes: minute.NewService(minute.Deps{
			Tx: store, Clients: store.Clients(), Minutes: store.Minutes(), Users: store.Users(),
			Recorder: rec, Renderer: pdf.NewMinuteRenderer("Concesionaria Test"), Log: log, Timeout: time.Second,
		}),
		Tracking: track,
		Export: export.NewService(export.Deps{
			Snapshotter: staticSnapshot{}, Workbook: infraexport.ExcelWriter{},
			Users: store.Users(), Recorder: rec, Log: log, Timeout: time.Second,
		}),
		Metrics:       m,
		JWTSecret:     testJWTSecret,
		RateBurst:     2,
		RatePerSecond: 1,
	})

	return &apiFixture{
		app: app, store: store, rec: rec, metrics: m,
		vendor:  store.SeedUser("Vendedor", entity.RoleVendedor, false),
		admin:   store.SeedUser("Admin", entity.RoleAdministrador, false),
		premium: store.SeedUser("Premium", entity.RoleAdministrador, true),
	}
}

func bearer(t *testing.T, u *entity.User) string {
	return tokenFor(t, pkgjwt.Identity{UserID: u.ID, Role: string(policy.RoleOf(u)), SessionID: testSessionID})
}

func (f *apiFixture) do(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_RegistroLoginLogout(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Name: "Nuevo Vendedor", Email: "nuevo@test.local", Password: "secreta123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nuevo@test.local", Password: "secreta123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	assert.NotEmpty(t, login.Token)
	assert.NotEmpty(t, login.SessionID)

	resp = f.do(t, http.MethodPost, "/api/auth/logout", "Bearer "+login.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_LoginCredencialesInvalidas(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nadie@test.local", Password: "x"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_RateLimitEnAuth(t *testing.T) {
	f := newAPI(t)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp := f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nadie@test.local", Password: "x"})
		codes = append(codes, resp.StatusCode)
		resp.Body.Close()
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

// ──────────────────────────────────────────────────────────────────────────────
// Minutas
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_MinutaDuplicadaDevuelve409ConMinutaID(t *testing.T) {
	f := newAPI(t)
	v := f.store.SeedVehicle(10000, entity.VehicleAvailable)
	c := f.store.SeedClient("30111222")
	body := map[string]any{"vehiculo_id": v.ID, "cliente_id": c.ID, "precio_original": 10000, "precio_final": 9500}

	resp := f.do(t, http.MethodPost, "/api/minutas", bearer(t, f.vendor), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.MinuteResponse](t, resp)

	resp = f.do(t, http.MethodPost, "/api/minutas", bearer(t, f.vendor), body)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, created.ID, errBody.MinuteID)
	assert.Contains(t, errBody.Message, "no está disponible")
}

func TestRouter_MinutaPDF(t *testing.T) {
	f := newAPI(t)
	v := f.store.SeedVehicle(10000, entity.VehicleAvailable)
	c := f.store.SeedClient("30111222")
	resp := f.do(t, http.MethodPost, "/api/minutas", bearer(t, f.vendor),
		map[string]any{"vehiculo_id": v.ID, "cliente_id": c.ID, "precio_original": 10000, "precio_final": 10000})
	created := decode[dto.MinuteResponse](t, resp)

	resp = f.do(t, http.MethodGet, "/api/minutas/"+created.ID+"/pdf", bearer(t, f.vendor), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	data, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRouter_LiberarVehiculoSoloAdministrador(t *testing.T) {
	f := newAPI(t)
	v := f.store.SeedVehicle(10000, entity.VehicleAvailable)
	c := f.store.SeedClient("30111222")
	resp := f.do(t, http.MethodPost, "/api/minutas", bearer(t, f.vendor),
		map[string]any{"vehiculo_id": v.ID, "cliente_id": c.ID, "precio_original": 10000, "precio_final": 10000})
	created := decode[dto.MinuteResponse](t, resp)

	resp = f.do(t, http.MethodPost, "/api/minutas/"+created.ID+"/liberar-vehiculo", bearer(t, f.vendor), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/minutas/"+created.ID+"/liberar-vehiculo", bearer(t, f.admin), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.VehicleAvailable, f.store.Vehicle(v.ID).State)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo y errores
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_ActualizarVehiculoSinCampos(t *testing.T) {
	f := newAPI(t)
	v := f.store.SeedVehicle(10000, entity.VehicleAvailable)

	resp := f.do(t, http.MethodPut, "/api/vehiculos/"+v.ID, bearer(t, f.admin), map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NOTHING_TO_UPDATE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestRouter_VendedorNoEliminaVehiculo(t *testing.T) {
	f := newAPI(t)
	v := f.store.SeedVehicle(10000, entity.VehicleAvailable)

	resp := f.do(t, http.MethodDelete, "/api/vehiculos/"+v.ID, bearer(t, f.vendor), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_ClienteDuplicado(t *testing.T) {
	f := newAPI(t)
	f.store.SeedClient("30111222")

	resp := f.do(t, http.MethodPost, "/api/clientes", bearer(t, f.vendor),
		dto.CreateClientRequest{FirstName: "juan", LastName: "gómez", DNI: "30.111.222"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CLAVE_DUPLICADA", decode[dto.ErrorResponse](t, resp).Code)
}

func TestRouter_StoreCaidoDevuelve503(t *testing.T) {
	f := newAPI(t)
	f.store.Fail = apptest.ErrStoreDown

	resp := f.do(t, http.MethodGet, "/api/vehiculos", bearer(t, f.vendor), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRouter_UsuarioInexistenteDevuelve404(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodPost, "/api/usuarios/00000000-0000-0000-0000-00000000dead/suspender",
		bearer(t, f.premium), dto.SuspendRequest{Reason: "prueba"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vigilancia, tracking y exportación
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_AuditoriaSoloPremium(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, "/api/auditoria", bearer(t, f.admin), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/auditoria", bearer(t, f.premium), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_TokenPremiumDesactualizado(t *testing.T) {
	f := newAPI(t)
	// El token dice premium pero el store no: decide el store.
	tok := tokenFor(t, pkgjwt.Identity{UserID: f.admin.ID, Role: "premium"})

	resp := f.do(t, http.MethodGet, "/api/alertas-premium", tok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_TrackingNavegacion(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodPost, "/api/tracking/navegacion", bearer(t, f.vendor), dto.NavigationRequest{Section: "vehiculos"})
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	navs := f.rec.Navigations()
	require.Len(t, navs, 1)
	assert.Equal(t, f.vendor.ID, navs[0].UserID)
	assert.Equal(t, testSessionID, navs[0].SessionID)

	resp = f.do(t, http.MethodPost, "/api/tracking/navegacion", bearer(t, f.vendor), dto.NavigationRequest{})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_ExportarExcel(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, "/api/exportar-excel", bearer(t, f.premium), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasSuffix(resp.Header.Get("Content-Disposition"), `.xlsx"`))
	assert.Contains(t, f.rec.AuditActions(), "EXPORTACION_EXCEL")
}

func TestRouter_Metricas(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodGet, "/api/vehiculos", bearer(t, f.vendor), nil)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/metrics", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), `path="/api/vehiculos`)
}

// ──────────────────────────────────────────────────────────────────────────────
// Metadatos del dispositivo
// ──────────────────────────────────────────────────────────────────────────────

func TestRequestMeta_CabecerasDeDispositivo(t *testing.T) {
	f := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/vehiculos", strings.NewReader(
		`{"tipo":"auto","marca":"ford","modelo":"ka","anio":2020,"condicion":"nuevo","precio":5000}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, f.vendor))
	req.Header.Set(apphttp.HeaderDeviceID, "disp-1")
	req.Header.Set(apphttp.HeaderDeviceInfo, `{"plataforma":"web"}`)
	req.Header.Set(apphttp.HeaderDeviceTime, "2024-03-01T10:00:00Z")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	audits := f.rec.Audits()
	require.NotEmpty(t, audits)
	last := audits[len(audits)-1]
	assert.Equal(t, "disp-1", last.Meta.DeviceID)
	assert.JSONEq(t, `{"plataforma":"web"}`, string(last.Meta.DeviceInfo))
	require.NotNil(t, last.Meta.DeviceTime)
}
