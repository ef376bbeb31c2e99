package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

var (
	vendedor = Actor{ID: "v-1", Role: RoleVendedor}
	admin    = Actor{ID: "a-1", Role: RoleAdministrador}
	premium  = Actor{ID: "p-1", Role: RolePremium, SuperAdmin: true}
	super    = Actor{ID: "s-1", Role: RoleVendedor, SuperAdmin: true}
)

// ──────────────────────────────────────────────────────────────────────────────
// Gestión de usuarios
// ──────────────────────────────────────────────────────────────────────────────

func TestCanPerform_SoloPremiumSuspende(t *testing.T) {
	for _, op := range []Operation{SuspendUser, ReactivateUser, DeleteUser} {
		assert.True(t, CanPerform(premium, op, Target{}), "premium puede operar sobre un usuario normal")
		assert.False(t, CanPerform(admin, op, Target{}))
		assert.False(t, CanPerform(vendedor, op, Target{}))
		assert.False(t, CanPerform(super, op, Target{}))
	}
}

func TestCanPerform_PremiumNuncaEsObjetivo(t *testing.T) {
	for _, a := range []Actor{premium, admin, vendedor, super} {
		assert.False(t, CanPerform(a, SuspendUser, Target{Premium: true}))
		assert.False(t, CanPerform(a, DeleteUser, Target{Premium: true}))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Minutas y clientes
// ──────────────────────────────────────────────────────────────────────────────

func TestCanPerform_EditarMinuta(t *testing.T) {
	assert.True(t, CanPerform(admin, EditMinute, Target{}))
	assert.True(t, CanPerform(premium, EditMinute, Target{}))
	assert.False(t, CanPerform(vendedor, EditMinute, Target{}))
	assert.False(t, CanPerform(super, EditMinute, Target{}), "super_admin sin rol no edita minutas")
}

func TestCanPerform_LiberarSoloAdministrador(t *testing.T) {
	assert.True(t, CanPerform(admin, ReleaseVehicle, Target{}))
	assert.False(t, CanPerform(premium, ReleaseVehicle, Target{}))
	assert.False(t, CanPerform(vendedor, ReleaseVehicle, Target{}))
}

func TestCanPerform_EliminarMinutaPropia(t *testing.T) {
	assert.True(t, CanPerform(vendedor, DeleteMinute, Target{OwnerID: "v-1"}))
	assert.False(t, CanPerform(vendedor, DeleteMinute, Target{OwnerID: "v-2"}))
	assert.False(t, CanPerform(Actor{}, DeleteMinute, Target{OwnerID: ""}), "actor vacío nunca es dueño")
	assert.True(t, CanPerform(super, DeleteMinute, Target{OwnerID: "v-2"}))
	assert.True(t, CanPerform(admin, DeleteMinute, Target{OwnerID: "v-2"}))
}

func TestCanPerform_EliminarClienteSinPropietario(t *testing.T) {
	assert.True(t, CanPerform(super, DeleteClient, Target{}))
	assert.True(t, CanPerform(premium, DeleteClient, Target{}))
	assert.False(t, CanPerform(vendedor, DeleteClient, Target{OwnerID: "v-1"}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Altas de administradores
// ──────────────────────────────────────────────────────────────────────────────

func TestCanPerform_AltaAdministradorSoloLocal(t *testing.T) {
	assert.True(t, CanPerform(Actor{}, CreateAdminAccount, Target{LocalOrigin: true}))
	assert.False(t, CanPerform(premium, CreateAdminAccount, Target{LocalOrigin: false}))
	assert.True(t, CanPerform(premium, CreateLimitedAdmin, Target{}))
	assert.False(t, CanPerform(admin, CreateLimitedAdmin, Target{}))
}

func TestCanPerform_OperacionDesconocida(t *testing.T) {
	assert.False(t, CanPerform(premium, Operation(999), Target{}))
}

func TestResolve(t *testing.T) {
	_, err := Resolve(nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = Resolve(&entity.User{ID: "u", Enabled: false})
	assert.ErrorIs(t, err, domain.ErrUserDisabled)

	a, err := Resolve(&entity.User{ID: "u", Role: entity.RoleAdministrador, Enabled: true, Premium: true, SuperAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, RolePremium, a.Role, "es_premium prevalece sobre el rol almacenado")
	assert.True(t, a.SuperAdmin)
}
