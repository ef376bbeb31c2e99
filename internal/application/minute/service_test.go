package minute

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/concesionaria-api/internal/application/apptest"
	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/audit/audittest"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

type fakeRenderer struct{}

func (fakeRenderer) RenderMinute(_ context.Context, m *entity.MinuteView) ([]byte, error) {
	return []byte("%PDF " + m.ID), nil
}

type fixture struct {
	store   *apptest.Store
	rec     *audittest.Recorder
	svc     *Service
	vendor  *entity.User
	vendor2 *entity.User
	admin   *entity.User
	premium *entity.User
	vehicle *entity.Vehicle
	client  *entity.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := apptest.NewStore()
	rec := audittest.New()
	return &fixture{
		store: store,
		rec:   rec,
		svc: NewService(Deps{
			Tx: store, Clients: store.Clients(), Minutes: store.Minutes(), Users: store.Users(),
			Recorder: rec, Renderer: fakeRenderer{},
		}),
		vendor:  store.SeedUser("Vendedor", entity.RoleVendedor, false),
		vendor2: store.SeedUser("Vendedor Dos", entity.RoleVendedor, false),
		admin:   store.SeedUser("Admin", entity.RoleAdministrador, false),
		premium: store.SeedUser("Premium", entity.RoleAdministrador, true),
		vehicle: store.SeedVehicle(10000, entity.VehicleAvailable),
		client:  store.SeedClient("30111222"),
	}
}

func (f *fixture) request() dto.CreateMinuteRequest {
	return dto.CreateMinuteRequest{
		VehicleID:     f.vehicle.ID,
		ClientID:      f.client.ID,
		OriginalPrice: decimal.NewFromInt(10000),
		FinalPrice:    decimal.NewFromInt(9500),
	}
}

func (f *fixture) create(t *testing.T) *dto.MinuteResponse {
	t.Helper()
	m, err := f.svc.CreateMinute(context.Background(), f.vendor.ID, f.request(), audit.Meta{})
	require.NoError(t, err)
	return m
}

// activeInvariant disponible si y solo si no hay minuta activa no eliminada.
func (f *fixture) activeInvariant(t *testing.T) {
	t.Helper()
	active := 0
	for _, m := range f.store.MinutesFor(f.vehicle.ID) {
		if !m.Deleted && (m.State == entity.MinuteReserved || m.State == entity.MinuteStarted) {
			active++
		}
	}
	v := f.store.Vehicle(f.vehicle.ID)
	assert.LessOrEqual(t, active, 1)
	assert.Equal(t, v.State == entity.VehicleAvailable, active == 0, "estado=%s activas=%d", v.State, active)
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateMinute
// ─────────────────────────────────────────────────────────────────────────────

func TestCreateMinute_Escenario(t *testing.T) {
	f := newFixture(t)

	m := f.create(t)
	assert.Equal(t, entity.MinuteReserved, m.State)
	assert.Equal(t, f.vendor.ID, m.VendorID)
	assert.Equal(t, entity.VehicleReserved, f.store.Vehicle(f.vehicle.ID).State)
	f.activeInvariant(t)

	_, err := f.svc.CreateMinute(context.Background(), f.vendor.ID, f.request(), audit.Meta{})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, m.ID, ce.MinuteID)
	assert.Contains(t, err.Error(), "reservado")

	require.NoError(t, f.svc.ReleaseVehicle(context.Background(), m.ID, f.admin.ID, entity.RoleAdministrador, audit.Meta{}))
	assert.Equal(t, entity.VehicleAvailable, f.store.Vehicle(f.vehicle.ID).State)
	assert.Equal(t, entity.MinuteCancelled, f.store.Minute(m.ID).State)
	f.activeInvariant(t)
}

func TestCreateMinute_AuditaYAlertaExito(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	assert.Equal(t, []string{"CREACION_MINUTA"}, f.rec.AuditActions())
	assert.Equal(t, []string{"nueva_minuta"}, f.rec.AlertTypes())
}

func TestCreateMinute_NoDisponibleAuditaIntento(t *testing.T) {
	f := newFixture(t)
	sold := f.store.SeedVehicle(5000, entity.VehicleSold)
	req := f.request()
	req.VehicleID = sold.ID

	_, err := f.svc.CreateMinute(context.Background(), f.vendor.ID, req, audit.Meta{IP: "203.0.113.9"})

	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.ConflictNotAvailable, ce.Reason)
	assert.Equal(t, entity.VehicleSold, ce.CurrentState)
	assert.Equal(t, []string{"INTENTO_VENDER_NO_DISPONIBLE"}, f.rec.AuditActions())
	assert.Equal(t, []string{"venta_duplicada"}, f.rec.AlertTypes())
	assert.Equal(t, "203.0.113.9", f.rec.Audits()[0].Meta.IP)
}

func TestCreateMinute_MinutaActivaConVehiculoDisponible(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)
	// estado inconsistente: vehículo disponible con minuta activa
	require.NoError(t, f.store.Vehicles().SetState(context.Background(), f.vehicle.ID, entity.VehicleAvailable))

	_, err := f.svc.CreateMinute(context.Background(), f.vendor2.ID, f.request(), audit.Meta{})

	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.ConflictDuplicateMinute, ce.Reason)
	assert.Equal(t, m.ID, ce.MinuteID)
	assert.Contains(t, f.rec.AuditActions(), "INTENTO_MINUTA_DUPLICADA")
	assert.Contains(t, f.rec.AlertTypes(), "minuta_duplicada")
}

func TestCreateMinute_ConcurrentesSoloUnaGana(t *testing.T) {
	f := newFixture(t)
	const n = 8

	var wg sync.WaitGroup
	results := make([]*dto.MinuteResponse, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.CreateMinute(context.Background(), f.vendor.ID, f.request(), audit.Meta{})
		}(i)
	}
	wg.Wait()

	var winner string
	for i := range errs {
		if errs[i] == nil {
			require.Empty(t, winner, "más de una minuta creada")
			winner = results[i].ID
		}
	}
	require.NotEmpty(t, winner)
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ce *domain.ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, winner, ce.MinuteID)
	}
	f.activeInvariant(t)
}

func TestCreateMinute_LiberarYVolverACrear(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	require.NoError(t, f.svc.ReleaseVehicle(context.Background(), m.ID, f.admin.ID, "", audit.Meta{}))
	again := f.create(t)

	assert.NotEqual(t, m.ID, again.ID)
	f.activeInvariant(t)
}

func TestCreateMinute_Validaciones(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(r *dto.CreateMinuteRequest){
		"sin vehiculo":       func(r *dto.CreateMinuteRequest) { r.VehicleID = "" },
		"sin cliente":        func(r *dto.CreateMinuteRequest) { r.ClientID = "" },
		"precio final cero":  func(r *dto.CreateMinuteRequest) { r.FinalPrice = decimal.Zero },
		"precio original":    func(r *dto.CreateMinuteRequest) { r.OriginalPrice = decimal.NewFromInt(-1) },
		"cuotas invalidas":   func(r *dto.CreateMinuteRequest) { n := 0; r.FinancingInstallments = &n },
		"reserva negativa":   func(r *dto.CreateMinuteRequest) { r.ReserveAmount = decimal.NewNullDecimal(decimal.NewFromInt(-5)) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := f.request()
			mutate(&req)
			_, err := f.svc.CreateMinute(context.Background(), f.vendor.ID, req, audit.Meta{})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.rec.AuditActions())
	assert.Equal(t, entity.VehicleAvailable, f.store.Vehicle(f.vehicle.ID).State)
}

func TestCreateMinute_ClienteEliminado(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Clients().SoftDelete(context.Background(), f.client.ID, f.admin.ID, f.client.CreatedAt))

	_, err := f.svc.CreateMinute(context.Background(), f.vendor.ID, f.request(), audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateMinute_VehiculoEliminado(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Vehicles().SoftDelete(context.Background(), f.vehicle.ID, f.admin.ID, f.vehicle.CreatedAt))

	_, err := f.svc.CreateMinute(context.Background(), f.vendor.ID, f.request(), audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.store.MinutesFor(f.vehicle.ID))
}

func TestCreateMinute_VendedorDeshabilitado(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Users().SetEnabled(context.Background(), f.vendor.ID, false))

	_, err := f.svc.CreateMinute(context.Background(), f.vendor.ID, f.request(), audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrUserDisabled)
}

func TestCreateMinute_StoreCaido(t *testing.T) {
	f := newFixture(t)
	f.store.Fail = apptest.ErrStoreDown

	_, err := f.svc.CreateMinute(context.Background(), f.vendor.ID, f.request(), audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Empty(t, f.rec.AuditActions())
}

// ─────────────────────────────────────────────────────────────────────────────
// EditMinute
// ─────────────────────────────────────────────────────────────────────────────

func ptr[T any](v T) *T { return &v }

func TestEditMinute_SoloAdminOPremium(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)
	patch := dto.EditMinuteRequest{Notes: ptr("llamar el lunes")}

	_, err := f.svc.EditMinute(context.Background(), f.vendor.ID, m.ID, patch, audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.EditMinute(context.Background(), f.admin.ID, m.ID, patch, audit.Meta{})
	assert.NoError(t, err)

	_, err = f.svc.EditMinute(context.Background(), f.premium.ID, m.ID, dto.EditMinuteRequest{Notes: ptr("otra")}, audit.Meta{})
	assert.NoError(t, err)
}

func TestEditMinute_PatchVacio(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	_, err := f.svc.EditMinute(context.Background(), f.admin.ID, m.ID, dto.EditMinuteRequest{}, audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrNothingToUpdate)
}

func TestEditMinute_HistorialPorCampo(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	out, err := f.svc.EditMinute(context.Background(), f.admin.ID, m.ID, dto.EditMinuteRequest{
		FinalPrice:    ptr(decimal.NewFromInt(9000)),
		Notes:         ptr("con seña"),
		ReserveAmount: ptr(decimal.NewFromInt(500)),
	}, audit.Meta{})
	require.NoError(t, err)
	assert.True(t, out.FinalPrice.Equal(decimal.NewFromInt(9000)))

	fields := map[string][2]string{}
	for _, h := range f.store.History() {
		assert.Equal(t, m.ID, h.RecordID)
		assert.Equal(t, f.admin.ID, h.ModifiedBy)
		fields[h.Field] = [2]string{h.OldValue, h.NewValue}
	}
	assert.Equal(t, map[string][2]string{
		"precio_final":  {"9500", "9000"},
		"observaciones": {"", "con seña"},
		"reserva_monto": {"", "500"},
	}, fields)
	assert.Contains(t, f.rec.AuditActions(), "EDICION_MINUTA")
}

func TestEditMinute_SinCambiosRealesNoAudita(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	_, err := f.svc.EditMinute(context.Background(), f.admin.ID, m.ID, dto.EditMinuteRequest{FinalPrice: ptr(decimal.NewFromInt(9500))}, audit.Meta{})
	require.NoError(t, err)
	assert.Empty(t, f.store.History())
	assert.NotContains(t, f.rec.AuditActions(), "EDICION_MINUTA")
}

func TestEditMinute_CerrarMarcaVendido(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	_, err := f.svc.EditMinute(context.Background(), f.admin.ID, m.ID, dto.EditMinuteRequest{State: ptr(entity.MinuteClosed)}, audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, entity.VehicleSold, f.store.Vehicle(f.vehicle.ID).State)
	f.activeInvariant(t)

	_, err = f.svc.EditMinute(context.Background(), f.admin.ID, m.ID, dto.EditMinuteRequest{State: ptr(entity.MinuteReserved)}, audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestEditMinute_CancelarLiberaVehiculo(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	_, err := f.svc.EditMinute(context.Background(), f.premium.ID, m.ID, dto.EditMinuteRequest{State: ptr(entity.MinuteCancelled)}, audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, entity.VehicleAvailable, f.store.Vehicle(f.vehicle.ID).State)
	f.activeInvariant(t)
}

func TestEditMinute_TodoONada(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)
	f.store.Fail = nil

	_, err := f.svc.EditMinute(context.Background(), f.admin.ID, m.ID, dto.EditMinuteRequest{
		State: ptr(entity.MinuteClosed), FinalPrice: ptr(decimal.NewFromInt(-1)),
	}, audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, entity.MinuteReserved, f.store.Minute(m.ID).State)
	assert.Equal(t, entity.VehicleReserved, f.store.Vehicle(f.vehicle.ID).State)
}

func TestEditMinute_Inexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.EditMinute(context.Background(), f.admin.ID, "no-existe", dto.EditMinuteRequest{Notes: ptr("x")}, audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────────────────────
// ReleaseVehicle
// ─────────────────────────────────────────────────────────────────────────────

func TestReleaseVehicle_SoloAdministrador(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	for _, u := range []*entity.User{f.vendor, f.premium} {
		err := f.svc.ReleaseVehicle(context.Background(), m.ID, u.ID, entity.RoleAdministrador, audit.Meta{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	}
	assert.Equal(t, entity.VehicleReserved, f.store.Vehicle(f.vehicle.ID).State)
}

func TestReleaseVehicle_AuditaYAlerta(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	require.NoError(t, f.svc.ReleaseVehicle(context.Background(), m.ID, f.admin.ID, "", audit.Meta{}))

	assert.Contains(t, f.rec.AuditActions(), "LIBERACION_VEHICULO")
	assert.Contains(t, f.rec.AlertTypes(), "vehiculo_liberado")
	hist := f.store.History()
	require.Len(t, hist, 1)
	assert.Equal(t, "estado", hist[0].Field)
}

func TestReleaseVehicle_MinutaFinalizada(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)
	require.NoError(t, f.svc.ReleaseVehicle(context.Background(), m.ID, f.admin.ID, "", audit.Meta{}))

	err := f.svc.ReleaseVehicle(context.Background(), m.ID, f.admin.ID, "", audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = f.svc.ReleaseVehicle(context.Background(), "no-existe", f.admin.ID, "", audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteMinute
// ─────────────────────────────────────────────────────────────────────────────

func TestDeleteMinute_PropietarioOElevado(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	err := f.svc.DeleteMinute(context.Background(), m.ID, f.vendor2.ID, audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.svc.DeleteMinute(context.Background(), m.ID, f.vendor.ID, audit.Meta{}))
	assert.True(t, f.store.Minute(m.ID).Deleted)
	assert.Contains(t, f.rec.AuditActions(), "ELIMINACION_MINUTA")

	err = f.svc.DeleteMinute(context.Background(), m.ID, f.admin.ID, audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteMinute_NoRevierteVehiculo(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	require.NoError(t, f.svc.DeleteMinute(context.Background(), m.ID, f.admin.ID, audit.Meta{}))
	assert.Equal(t, entity.VehicleReserved, f.store.Vehicle(f.vehicle.ID).State)
}

// ─────────────────────────────────────────────────────────────────────────────
// Consultas
// ─────────────────────────────────────────────────────────────────────────────

func TestGetMinute_YPDF(t *testing.T) {
	f := newFixture(t)
	m := f.create(t)

	got, err := f.svc.GetMinute(context.Background(), f.vendor.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", got.ClientName)
	assert.Equal(t, "Vendedor", got.VendorName)

	pdf, err := f.svc.MinutePDF(context.Background(), f.vendor.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF "+m.ID, string(pdf))

	list, err := f.svc.ListMinutes(context.Background(), f.vendor.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.GetMinute(context.Background(), f.vendor.ID, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
