package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/concesionaria-api/internal/application/apptest"
	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/audit/audittest"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/application/tracking"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/pkg/jwt"
)

const (
	secret   = "clave-de-prueba"
	localIP  = "127.0.0.1"
	remoteIP = "203.0.113.5"
)

func newUseCase(t *testing.T) (*AuthUseCase, *apptest.Store, *audittest.Recorder) {
	t.Helper()
	store := apptest.NewStore()
	rec := audittest.New()
	sessions := tracking.NewService(store.TrackingRepo(), store.Users(), rec, zerolog.Nop())
	uc := NewAuthUseCase(store.Users(), sessions, rec, policy.DefaultAllowList(),
		JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "test"}, zerolog.Nop(),
		WithBcryptCost(bcrypt.MinCost))
	return uc, store, rec
}

func register(t *testing.T, uc *AuthUseCase, name, email, role string) *dto.UserResponse {
	t.Helper()
	u, err := uc.Register(context.Background(), dto.RegisterRequest{Name: name, Email: email, Password: "secreto123", Role: role}, audit.Meta{IP: localIP})
	require.NoError(t, err)
	return u
}

// ─────────────────────────────────────────────────────────────────────────────
// Register
// ─────────────────────────────────────────────────────────────────────────────

func TestRegister_VendedorPorDefecto(t *testing.T) {
	uc, store, rec := newUseCase(t)

	u := register(t, uc, "Juan", "Juan@Test.com ", "")

	assert.Equal(t, entity.RoleVendedor, u.Role)
	assert.Equal(t, "juan@test.com", u.Email)
	stored := store.User(u.ID)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secreto123", stored.PasswordHash)
	assert.True(t, stored.Enabled)
	assert.Empty(t, rec.AuditActions(), "registro local no se audita")
}

func TestRegister_RemotoAuditaYAlerta(t *testing.T) {
	uc, _, rec := newUseCase(t)

	u, err := uc.Register(context.Background(), dto.RegisterRequest{Name: "Juan", Email: "juan@test.com", Password: "secreto123"}, audit.Meta{IP: remoteIP})
	require.NoError(t, err)

	assert.Equal(t, []string{"CREACION_USUARIO"}, rec.AuditActions())
	assert.Equal(t, []string{"nuevo_usuario"}, rec.AlertTypes())
	assert.Equal(t, u.ID, rec.Alerts()[0].AffectedUserID)
}

func TestRegister_AdminSoloDesdeRedLocal(t *testing.T) {
	uc, store, rec := newUseCase(t)

	_, err := uc.Register(context.Background(), dto.RegisterRequest{
		Name: "Intruso", Email: "intruso@test.com", Password: "secreto123", Role: entity.RoleAdministrador,
	}, audit.Meta{IP: remoteIP})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, []string{"INTENTO_CREAR_ADMIN"}, rec.AuditActions())
	assert.Empty(t, rec.Audits()[0].ActorID)
	assert.Equal(t, []string{"intento_admin_critico"}, rec.AlertTypes())
	u, _ := store.Users().GetByEmail(context.Background(), "intruso@test.com")
	assert.Nil(t, u)

	for i, ip := range []string{localIP, "::1", "::ffff:127.0.0.1"} {
		_, err := uc.Register(context.Background(), dto.RegisterRequest{
			Name: "Admin", Email: fmt.Sprintf("admin%d@test.com", i), Password: "secreto123", Role: entity.RoleAdministrador,
		}, audit.Meta{IP: ip})
		assert.NoError(t, err, ip)
	}
}

func TestRegister_EmailDuplicado(t *testing.T) {
	uc, _, rec := newUseCase(t)
	register(t, uc, "Juan", "juan@test.com", "")

	_, err := uc.Register(context.Background(), dto.RegisterRequest{Name: "Otro", Email: "JUAN@test.com", Password: "secreto123"}, audit.Meta{IP: remoteIP})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	assert.Equal(t, []string{"INTENTO_EMAIL_DUPLICADO"}, rec.AuditActions())
	assert.Empty(t, rec.Audits()[0].ActorID)
	assert.Equal(t, []string{"email_duplicado"}, rec.AlertTypes())
}

func TestRegister_Validaciones(t *testing.T) {
	uc, _, _ := newUseCase(t)
	cases := map[string]dto.RegisterRequest{
		"sin nombre":      {Email: "a@test.com", Password: "secreto123"},
		"password corta":  {Name: "A", Email: "a@test.com", Password: "corta"},
		"email invalido":  {Name: "A", Email: "no-es-email", Password: "secreto123"},
		"rol desconocido": {Name: "A", Email: "a@test.com", Password: "secreto123", Role: "gerente"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), in, audit.Meta{IP: localIP})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Login / Logout
// ─────────────────────────────────────────────────────────────────────────────

func TestLogin_ExitosoAbreSesionYEmiteToken(t *testing.T) {
	uc, store, rec := newUseCase(t)
	u := register(t, uc, "Juan", "juan@test.com", "")

	info := json.RawMessage(`{"dispositivo_id":"dev-1","plataforma":"android"}`)
	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "juan@test.com", Password: "secreto123", DeviceInfo: info}, audit.Meta{IP: remoteIP}, "Mozilla/5.0")
	require.NoError(t, err)

	id, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, "vendedor", id.Role)
	assert.Equal(t, out.SessionID, id.SessionID)

	sess, err := store.TrackingRepo().GetSession(context.Background(), out.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, remoteIP, sess.IP)
	assert.Equal(t, "dev-1", sess.DeviceID)

	require.Len(t, rec.Actions(), 1)
	assert.Equal(t, "LOGIN_EXITOSO", rec.Actions()[0].Type)
	assert.Equal(t, []string{"login_usuario"}, rec.AlertTypes())
	require.Len(t, rec.Devices(), 1)
	assert.Equal(t, "android", rec.Devices()[0].Platform)
}

func TestLogin_LocalNoRegistraAcciones(t *testing.T) {
	uc, _, rec := newUseCase(t)
	register(t, uc, "Juan", "juan@test.com", "")

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "juan@test.com", Password: "secreto123"}, audit.Meta{IP: localIP}, "")
	require.NoError(t, err)
	assert.Empty(t, rec.Actions())
	assert.Empty(t, rec.Alerts())
}

func TestLogin_PremiumNoGeneraAlerta(t *testing.T) {
	uc, _, rec := newUseCase(t)
	_, err := uc.EnsurePremium(context.Background(), PremiumAccount{Email: "premium@test.com", Password: "secreto123"})
	require.NoError(t, err)

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "premium@test.com", Password: "secreto123"}, audit.Meta{IP: remoteIP}, "")
	require.NoError(t, err)
	assert.True(t, out.User.Premium)
	assert.False(t, out.User.Admin)
	assert.Empty(t, rec.Alerts())

	id, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "premium", id.Role)
}

func TestLogin_Fallidos(t *testing.T) {
	uc, store, rec := newUseCase(t)
	u := register(t, uc, "Juan", "juan@test.com", "")

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@test.com", Password: "x"}, audit.Meta{IP: remoteIP}, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "juan@test.com", Password: "incorrecta"}, audit.Meta{IP: remoteIP}, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, store.Users().SetEnabled(context.Background(), u.ID, false))
	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "juan@test.com", Password: "secreto123"}, audit.Meta{IP: remoteIP}, "")
	assert.ErrorIs(t, err, domain.ErrUserDisabled)

	var types []string
	for _, a := range rec.Actions() {
		types = append(types, a.Type)
	}
	assert.Equal(t, []string{"LOGIN_FALLIDO", "LOGIN_FALLIDO", "LOGIN_DESHABILITADO"}, types)
	assert.Empty(t, rec.Actions()[0].UserID)
	assert.Equal(t, u.ID, rec.Actions()[1].UserID)
}

func TestLogin_StoreCaido(t *testing.T) {
	uc, store, _ := newUseCase(t)
	store.Fail = apptest.ErrStoreDown

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "juan@test.com", Password: "secreto123"}, audit.Meta{IP: remoteIP}, "")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestLogout_CierraSesionYAlerta(t *testing.T) {
	uc, store, rec := newUseCase(t)
	u := register(t, uc, "Juan", "juan@test.com", "")
	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "juan@test.com", Password: "secreto123"}, audit.Meta{IP: localIP}, "")
	require.NoError(t, err)

	require.NoError(t, uc.Logout(context.Background(), u.ID, out.SessionID, audit.Meta{IP: remoteIP}))

	sess, _ := store.TrackingRepo().GetSession(context.Background(), out.SessionID)
	require.NotNil(t, sess.LogoutAt)
	require.Len(t, rec.Actions(), 1)
	assert.Equal(t, "LOGOUT", rec.Actions()[0].Type)
	assert.Equal(t, []string{"logout_usuario"}, rec.AlertTypes())

	assert.NoError(t, uc.Logout(context.Background(), u.ID, "", audit.Meta{}))
}

// ─────────────────────────────────────────────────────────────────────────────
// Altas privilegiadas
// ─────────────────────────────────────────────────────────────────────────────

func TestEnsurePremium_Idempotente(t *testing.T) {
	uc, store, rec := newUseCase(t)
	acc := PremiumAccount{Name: "Premium", Email: "premium@test.com", Password: "secreto123"}

	created, err := uc.EnsurePremium(context.Background(), acc)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = uc.EnsurePremium(context.Background(), acc)
	require.NoError(t, err)
	assert.False(t, created)

	p, err := store.Users().FindPremium(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []string{"CREACION_USUARIO_PREMIUM"}, rec.AuditActions())
}

func TestEnsurePremium_SinPassword(t *testing.T) {
	uc, _, _ := newUseCase(t)
	_, err := uc.EnsurePremium(context.Background(), PremiumAccount{Email: "premium@test.com"})
	assert.Error(t, err)
}

func TestCreateLimitedAdmin_SoloPremium(t *testing.T) {
	uc, store, rec := newUseCase(t)
	premium := store.SeedUser("Premium", entity.RoleAdministrador, true)
	admin := store.SeedUser("Admin", entity.RoleAdministrador, false)
	in := dto.CreateAdminRequest{Name: "Nuevo", Email: "nuevo@test.com", Password: "secreto123"}

	_, err := uc.CreateLimitedAdmin(context.Background(), admin.ID, in, audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	out, err := uc.CreateLimitedAdmin(context.Background(), premium.ID, in, audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdministrador, out.Role)
	assert.False(t, out.Premium)
	assert.True(t, out.Admin)
	assert.Equal(t, []string{"CREACION_ADMIN_LIMITADO"}, rec.AuditActions())
	assert.Equal(t, premium.ID, rec.Audits()[0].ActorID)

	_, err = uc.CreateLimitedAdmin(context.Background(), premium.ID, in, audit.Meta{})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.Equal(t, []string{"CREACION_ADMIN_LIMITADO", "INTENTO_EMAIL_DUPLICADO"}, rec.AuditActions())
	assert.Equal(t, premium.ID, rec.Audits()[1].ActorID)
}
