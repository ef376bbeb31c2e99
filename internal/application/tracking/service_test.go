package tracking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/concesionaria-api/internal/application/apptest"
	"github.com/jhoicas/concesionaria-api/internal/application/audit/audittest"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(store *apptest.Store, rec *audittest.Recorder, c *clock) *Service {
	return NewService(store.TrackingRepo(), store.Users(), rec, zerolog.Nop(), WithClock(c.now))
}

func TestCloseSession_DuracionEnSegundos(t *testing.T) {
	store := apptest.NewStore()
	u := store.SeedUser("Vendedor", entity.RoleVendedor, false)
	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newService(store, audittest.New(), c)

	id, err := svc.OpenSession(context.Background(), OpenInput{UserID: u.ID, IP: "10.0.0.5"})
	require.NoError(t, err)

	c.t = c.t.Add(125*time.Second + 900*time.Millisecond)
	require.NoError(t, svc.CloseSession(context.Background(), id))

	sess, err := store.TrackingRepo().GetSession(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, sess.DurationSeconds)
	assert.Equal(t, int64(125), *sess.DurationSeconds)
	assert.True(t, sess.LogoutAt.Equal(c.t))
}

func TestCloseSession_IDDesconocidoNoEsError(t *testing.T) {
	store := apptest.NewStore()
	svc := newService(store, audittest.New(), &clock{t: time.Now()})

	assert.NoError(t, svc.CloseSession(context.Background(), "no-existe"))
	assert.NoError(t, svc.CloseSession(context.Background(), ""))
}

func TestCloseSession_SegundoCierreNoReescribe(t *testing.T) {
	store := apptest.NewStore()
	u := store.SeedUser("Vendedor", entity.RoleVendedor, false)
	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newService(store, audittest.New(), c)
	id, err := svc.OpenSession(context.Background(), OpenInput{UserID: u.ID})
	require.NoError(t, err)

	c.t = c.t.Add(10 * time.Second)
	require.NoError(t, svc.CloseSession(context.Background(), id))
	c.t = c.t.Add(time.Hour)
	require.NoError(t, svc.CloseSession(context.Background(), id))

	sess, _ := store.TrackingRepo().GetSession(context.Background(), id)
	assert.Equal(t, int64(10), *sess.DurationSeconds)
}

func TestDuration_NuncaNegativa(t *testing.T) {
	t0 := time.Now()
	assert.Equal(t, int64(0), Duration(t0, t0.Add(-time.Second)))
	assert.Equal(t, int64(1), Duration(t0, t0.Add(1999*time.Millisecond)))
}

func TestOpenSession_RegistraDispositivo(t *testing.T) {
	store := apptest.NewStore()
	rec := audittest.New()
	u := store.SeedUser("Vendedor", entity.RoleVendedor, false)
	svc := newService(store, rec, &clock{t: time.Now()})

	info := json.RawMessage(`{"mac":"aa:bb","plataforma":"Win32"}`)
	_, err := svc.OpenSession(context.Background(), OpenInput{
		UserID: u.ID, UserAgent: "Mozilla/5.0", DeviceID: "dev-9", DeviceInfo: info,
	})
	require.NoError(t, err)

	devices := rec.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, "dev-9", devices[0].DeviceID)
	assert.Equal(t, "aa:bb", devices[0].MAC)
	assert.Equal(t, "Mozilla/5.0", devices[0].Browser)
}

func TestOpenSession_StoreCaido(t *testing.T) {
	store := apptest.NewStore()
	store.Fail = apptest.ErrStoreDown
	svc := newService(store, audittest.New(), &clock{t: time.Now()})

	_, err := svc.OpenSession(context.Background(), OpenInput{UserID: "u"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestRecordNavigation_DelegaAlRecorder(t *testing.T) {
	rec := audittest.New()
	svc := newService(apptest.NewStore(), rec, &clock{t: time.Now()})

	require.NoError(t, svc.RecordNavigation(context.Background(), NavigationInput{UserID: "u-1", Section: "vehiculos"}))
	assert.ErrorIs(t, svc.RecordNavigation(context.Background(), NavigationInput{UserID: "u-1"}), domain.ErrInvalidInput)
	assert.Len(t, rec.Navigations(), 1)
}

func TestListSessions_SoloPremium(t *testing.T) {
	store := apptest.NewStore()
	premium := store.SeedUser("Premium", entity.RoleAdministrador, true)
	admin := store.SeedUser("Admin", entity.RoleAdministrador, false)
	svc := newService(store, audittest.New(), &clock{t: time.Now()})
	_, err := svc.OpenSession(context.Background(), OpenInput{UserID: admin.ID})
	require.NoError(t, err)

	_, err = svc.ListSessions(context.Background(), admin.ID, admin.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := svc.ListSessions(context.Background(), premium.ID, admin.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
