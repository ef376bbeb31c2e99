package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/concesionaria-api/internal/application/apptest"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

// ─────────────────────────────────────────────────────────────────────────────
// Suspender / reactivar / eliminar
// ─────────────────────────────────────────────────────────────────────────────

func TestSuspendUser_SoloPremium(t *testing.T) {
	f := newFixture(t)
	in := dto.SuspendRequest{Reason: "faltante de caja"}

	err := f.users.Suspend(context.Background(), f.admin.ID, f.vendor.ID, in, meta)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.True(t, f.store.User(f.vendor.ID).Enabled)
}

func TestSuspendUser_DeshabilitaYRegistra(t *testing.T) {
	f := newFixture(t)
	in := dto.SuspendRequest{Reason: "faltante de caja", Message: "pasar por gerencia", Duration: "7 días"}

	require.NoError(t, f.users.Suspend(context.Background(), f.premium.ID, f.vendor.ID, in, meta))

	assert.False(t, f.store.User(f.vendor.ID).Enabled)
	susp := f.store.Suspensions()
	require.Len(t, susp, 1)
	assert.Equal(t, f.vendor.ID, susp[0].UserID)
	assert.Equal(t, f.premium.ID, susp[0].SuspendedBy)
	assert.Equal(t, "7 días", susp[0].Duration)

	assert.Equal(t, []string{"SUSPENSION_USUARIO"}, f.rec.AuditActions())
	alerts := f.rec.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "usuario_suspendido", alerts[0].Type)
	assert.Equal(t, f.vendor.ID, alerts[0].AffectedUserID)
	assert.Equal(t, "El usuario Vendedor (vendedor@test.local) ha sido suspendido por: faltante de caja", alerts[0].Message)
}

func TestSuspendUser_PremiumIntocable(t *testing.T) {
	f := newFixture(t)

	err := f.users.Suspend(context.Background(), f.premium.ID, f.premium.ID, dto.SuspendRequest{}, meta)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.users.Delete(context.Background(), f.premium.ID, f.premium.ID, meta), domain.ErrForbidden)
	assert.True(t, f.store.User(f.premium.ID).Enabled)
}

func TestSuspendUser_Inexistente(t *testing.T) {
	f := newFixture(t)

	err := f.users.Suspend(context.Background(), f.premium.ID, "no-existe", dto.SuspendRequest{}, meta)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

// failingSuspensions historial de suspensiones que no puede escribir.
type failingSuspensions struct{ err error }

func (r failingSuspensions) Create(context.Context, *entity.Suspension) error { return r.err }
func (r failingSuspensions) MarkReactivated(context.Context, string) error   { return r.err }

var _ repository.SuspensionRepository = failingSuspensions{}

func TestSuspendUser_FalloAlRegistrarNoDejaCambios(t *testing.T) {
	f := newFixture(t)
	uc := NewUserUseCase(f.store.Users(), failingSuspensions{err: domain.ErrStoreUnavailable}, f.rec, zerolog.Nop(), time.Second)

	err := uc.Suspend(context.Background(), f.premium.ID, f.vendor.ID, dto.SuspendRequest{Reason: "x"}, meta)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.True(t, f.store.User(f.vendor.ID).Enabled)
	assert.Empty(t, f.store.Suspensions())
	assert.Empty(t, f.rec.Audits())
	assert.Empty(t, f.rec.Alerts())
}

func TestReactivateUser_FalloAlCerrarSuspension(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.users.Suspend(ctx, f.premium.ID, f.vendor.ID, dto.SuspendRequest{Reason: "x"}, meta))
	uc := NewUserUseCase(f.store.Users(), failingSuspensions{err: domain.ErrStoreUnavailable}, f.rec, zerolog.Nop(), time.Second)

	err := uc.Reactivate(ctx, f.premium.ID, f.vendor.ID, meta)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.False(t, f.store.User(f.vendor.ID).Enabled)
	susp := f.store.Suspensions()
	require.Len(t, susp, 1)
	assert.Nil(t, susp[0].ReactivatedAt)
	assert.Equal(t, []string{"SUSPENSION_USUARIO"}, f.rec.AuditActions())
}

func TestReactivateUser_CierraSuspension(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.users.Suspend(ctx, f.premium.ID, f.vendor.ID, dto.SuspendRequest{Reason: "x"}, meta))

	require.NoError(t, f.users.Reactivate(ctx, f.premium.ID, f.vendor.ID, meta))

	assert.True(t, f.store.User(f.vendor.ID).Enabled)
	susp := f.store.Suspensions()
	require.Len(t, susp, 1)
	assert.NotNil(t, susp[0].ReactivatedAt)
	assert.Equal(t, []string{"SUSPENSION_USUARIO", "REACTIVACION_USUARIO"}, f.rec.AuditActions())
	assert.Equal(t, []string{"usuario_suspendido", "usuario_reactivado"}, f.rec.AlertTypes())
}

func TestDeleteUser_Deshabilita(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.users.Delete(context.Background(), f.premium.ID, f.admin.ID, meta))

	u := f.store.User(f.admin.ID)
	require.NotNil(t, u)
	assert.False(t, u.Enabled)
	assert.Equal(t, []string{"ELIMINACION_USUARIO"}, f.rec.AuditActions())
	assert.Equal(t, []string{"usuario_eliminado"}, f.rec.AlertTypes())
}

func TestDeleteUser_ActorSuspendidoNoActua(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Users().SetEnabled(context.Background(), f.premium.ID, false))

	err := f.users.Delete(context.Background(), f.premium.ID, f.vendor.ID, meta)
	assert.ErrorIs(t, err, domain.ErrUserDisabled)
}

// ─────────────────────────────────────────────────────────────────────────────
// Listado
// ─────────────────────────────────────────────────────────────────────────────

func TestListWithActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.ListWithActivity(ctx, f.admin.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := f.users.ListWithActivity(ctx, f.premium.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, u := range list {
		if u.ID == f.premium.ID {
			assert.True(t, u.Premium)
			assert.False(t, u.Admin)
		}
		if u.ID == f.admin.ID {
			assert.True(t, u.Admin)
		}
	}
}

func TestListWithActivity_StoreCaido(t *testing.T) {
	f := newFixture(t)
	f.store.Fail = apptest.ErrStoreDown

	_, err := f.users.ListWithActivity(context.Background(), f.premium.ID)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
