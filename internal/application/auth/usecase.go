package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/application/tracking"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
	"github.com/jhoicas/concesionaria-api/pkg/jwt"
)

const (
	usersTable     = "usuarios"
	minPasswordLen = 8
	module         = "auth"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Sessions libro de sesiones usado por login y logout.
type Sessions interface {
	OpenSession(ctx context.Context, in tracking.OpenInput) (string, error)
	CloseSession(ctx context.Context, sessionID string) error
}

// PremiumAccount datos de la cuenta premium creada al arrancar.
type PremiumAccount struct {
	Name     string
	Email    string
	Password string
}

// AuthUseCase casos de uso de autenticación: registro, login, logout y altas privilegiadas.
type AuthUseCase struct {
	users    repository.UserRepository
	sessions Sessions
	recorder audit.Recorder
	trusted  *policy.AllowList
	jwtCfg   JWTConfig
	log      zerolog.Logger
	timeout  time.Duration
	cost     int
	now      func() time.Time
}

// Option configura el AuthUseCase.
type Option func(*AuthUseCase)

// WithTimeout límite por operación contra el store.
func WithTimeout(d time.Duration) Option { return func(uc *AuthUseCase) { uc.timeout = d } }

// WithBcryptCost costo de bcrypt (las pruebas usan bcrypt.MinCost).
func WithBcryptCost(cost int) Option { return func(uc *AuthUseCase) { uc.cost = cost } }

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(users repository.UserRepository, sessions Sessions, recorder audit.Recorder, trusted *policy.AllowList, jwtCfg JWTConfig, log zerolog.Logger, opts ...Option) *AuthUseCase {
	uc := &AuthUseCase{
		users: users, sessions: sessions, recorder: recorder, trusted: trusted, jwtCfg: jwtCfg, log: log,
		cost: bcrypt.DefaultCost, now: time.Now,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// ─── Registro ────────────────────────────────────────────────────────────────

// Register crea un usuario. El rol administrador solo se acepta desde una red de confianza;
// cualquier otro intento queda auditado y alertado. Los registros remotos también se auditan.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest, meta audit.Meta) (*dto.UserResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = entity.RoleVendedor
	}
	if err := validateAccount(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}
	if in.Role != entity.RoleVendedor && in.Role != entity.RoleAdministrador {
		return nil, domain.Invalid("rol desconocido: %s", in.Role)
	}

	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	existing, err := uc.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		uc.rejectDuplicateEmail(ctx, "", in.Email, meta)
		return nil, domain.ErrEmailAlreadyExists
	}

	local := uc.trusted.Contains(meta.IP)
	if in.Role == entity.RoleAdministrador && !policy.CanPerform(policy.Actor{}, policy.CreateAdminAccount, policy.Target{LocalOrigin: local}) {
		data := map[string]string{"nombre": in.Name, "email": in.Email, "rol": in.Role, "ip_address": meta.IP}
		uc.recorder.RecordAudit(ctx, audit.AuditInput{
			Action: "INTENTO_CREAR_ADMIN", Table: usersTable, After: data, Meta: meta,
		})
		uc.recorder.Alert(ctx, audit.AlertInput{
			Title:   "Intento de Crear Administrador",
			Message: fmt.Sprintf("Alguien intentó crear un usuario administrador: %s (%s)", in.Name, in.Email),
			Type:    "intento_admin_critico",
			Data:    data,
		})
		uc.log.Warn().Str("ip", meta.IP).Str("email", in.Email).Msg("auth: alta de administrador rechazada")
		return nil, domain.ErrForbidden
	}

	u, err := uc.newUser(in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		return nil, err
	}
	if err := uc.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			uc.rejectDuplicateEmail(ctx, "", in.Email, meta)
		}
		return nil, err
	}
	out := dto.NewUserResponse(u)

	if !local {
		uc.recorder.RecordAudit(ctx, audit.AuditInput{
			ActorID: u.ID, Action: "CREACION_USUARIO", Table: usersTable, RecordID: u.ID, After: out, Meta: meta,
		})
		uc.recorder.Alert(ctx, audit.AlertInput{
			Title:          "Nuevo Usuario Registrado",
			Message:        fmt.Sprintf("Se ha registrado un nuevo usuario: %s (%s) - Rol: %s", u.Name, u.Email, u.Role),
			Type:           "nuevo_usuario",
			AffectedUserID: u.ID,
			Data:           map[string]string{"nombre": u.Name, "email": u.Email, "rol": u.Role},
		})
	}
	return out, nil
}

// CreateLimitedAdmin alta de un administrador sin privilegios premium, solo para el premium.
func (uc *AuthUseCase) CreateLimitedAdmin(ctx context.Context, actorID string, in dto.CreateAdminRequest, meta audit.Meta) (*dto.UserResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	actor, _, err := policy.Load(ctx, uc.users, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanPerform(actor, policy.CreateLimitedAdmin, policy.Target{}) {
		return nil, domain.ErrForbidden
	}
	if err := validateAccount(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}

	u, err := uc.newUser(in.Name, in.Email, in.Password, entity.RoleAdministrador)
	if err != nil {
		return nil, err
	}
	if err := uc.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			uc.rejectDuplicateEmail(ctx, actor.ID, in.Email, meta)
		}
		return nil, err
	}
	out := dto.NewUserResponse(u)
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "CREACION_ADMIN_LIMITADO", Table: usersTable, RecordID: u.ID, After: out, Meta: meta,
	})
	return out, nil
}

// EnsurePremium crea la cuenta premium si todavía no existe. created es falso cuando ya había una.
func (uc *AuthUseCase) EnsurePremium(ctx context.Context, acc PremiumAccount) (created bool, err error) {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	existing, err := uc.users.FindPremium(ctx)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if acc.Password == "" {
		return false, errors.New("auth: PREMIUM_PASSWORD no configurado")
	}
	name := strings.TrimSpace(acc.Name)
	if name == "" {
		name = "Administrador Premium"
	}
	email := normalizeEmail(acc.Email)
	if err := validateAccount(name, email, acc.Password); err != nil {
		return false, err
	}

	u, err := uc.newUser(name, email, acc.Password, entity.RoleAdministrador)
	if err != nil {
		return false, err
	}
	u.Premium = true
	if err := uc.users.Create(ctx, u); err != nil {
		return false, err
	}
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: u.ID, Action: "CREACION_USUARIO_PREMIUM", Table: usersTable, RecordID: u.ID, After: dto.NewUserResponse(u),
	})
	uc.log.Info().Str("email", u.Email).Msg("auth: cuenta premium creada")
	return true, nil
}

// ─── Sesión ──────────────────────────────────────────────────────────────────

// Login verifica credenciales, abre la sesión y devuelve un JWT con la identidad del usuario.
// Los intentos fallidos desde fuera de la red de confianza quedan registrados como acciones.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, meta audit.Meta, userAgent string) (*dto.LoginResponse, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.Invalid("email y password son obligatorios")
	}

	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	local := uc.trusted.Contains(meta.IP)
	u, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		if !local {
			uc.action(ctx, "", "", "LOGIN_FALLIDO", meta, map[string]string{"email": email, "error": "usuario_no_encontrado"})
		}
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		if !local {
			uc.action(ctx, u.ID, "", "LOGIN_FALLIDO", meta, map[string]string{"email": email, "error": "password_incorrecto"})
		}
		return nil, domain.ErrUnauthorized
	}
	if !u.Enabled {
		if !u.Premium && !local {
			uc.action(ctx, u.ID, "", "LOGIN_DESHABILITADO", meta, map[string]string{"email": email})
		}
		return nil, domain.ErrUserDisabled
	}

	sessionID, err := uc.sessions.OpenSession(ctx, tracking.OpenInput{
		UserID:     u.ID,
		IP:         meta.IP,
		UserAgent:  userAgent,
		DeviceID:   deviceID(in.DeviceInfo),
		DeviceInfo: in.DeviceInfo,
	})
	if err != nil {
		return nil, err
	}

	if !local {
		uc.action(ctx, u.ID, sessionID, "LOGIN_EXITOSO", meta, map[string]any{"email": email, "dispositivo": in.DeviceInfo})
		if !u.Premium {
			uc.recorder.Alert(ctx, audit.AlertInput{
				Title:          "Usuario Conectado",
				Message:        fmt.Sprintf("El usuario %s (%s) acaba de iniciar sesión", u.Name, u.Email),
				Type:           "login_usuario",
				AffectedUserID: u.ID,
				Data:           map[string]any{"email": email, "ip_address": meta.IP, "user_agent": userAgent, "dispositivo": in.DeviceInfo},
			})
		}
	}

	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes, jwt.Identity{
		UserID:     u.ID,
		Role:       string(policy.RoleOf(u)),
		SuperAdmin: u.SuperAdmin,
		SessionID:  sessionID,
	})
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, SessionID: sessionID, User: *dto.NewUserResponse(u)}, nil
}

// Logout cierra la sesión. Una sesión vacía o desconocida no es error.
func (uc *AuthUseCase) Logout(ctx context.Context, userID, sessionID string, meta audit.Meta) error {
	if userID == "" || sessionID == "" {
		return nil
	}
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	if err := uc.sessions.CloseSession(ctx, sessionID); err != nil {
		return err
	}
	uc.action(ctx, userID, sessionID, "LOGOUT", meta, map[string]string{})

	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("auth: no se pudo leer el usuario en logout")
		return nil
	}
	if u != nil && !u.Premium {
		uc.recorder.Alert(ctx, audit.AlertInput{
			Title:          "Usuario Desconectado",
			Message:        fmt.Sprintf("El usuario %s cerró sesión", u.Name),
			Type:           "logout_usuario",
			AffectedUserID: u.ID,
			Data:           map[string]string{"ip_address": meta.IP},
		})
	}
	return nil
}

func (uc *AuthUseCase) action(ctx context.Context, userID, sessionID, typ string, meta audit.Meta, data any) {
	uc.recorder.RecordAction(ctx, audit.ActionInput{
		UserID: userID, SessionID: sessionID, Type: typ, Module: module, Data: data, IP: meta.IP,
	})
}

// rejectDuplicateEmail audita y alerta un alta con email ya registrado. actorID vacío = anónimo.
func (uc *AuthUseCase) rejectDuplicateEmail(ctx context.Context, actorID, email string, meta audit.Meta) {
	data := map[string]string{"email": email, "ip_address": meta.IP}
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actorID, Action: "INTENTO_EMAIL_DUPLICADO", Table: usersTable, After: data, Meta: meta,
	})
	uc.recorder.Alert(ctx, audit.AlertInput{
		Title:          "Intento de Registro Duplicado",
		Message:        fmt.Sprintf("Se intentó registrar un usuario con un email existente: %s", email),
		Type:           "email_duplicado",
		AffectedUserID: actorID,
		Data:           data,
	})
}

func (uc *AuthUseCase) newUser(name, email, password, role string) (*entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := uc.now()
	return &entity.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func validateAccount(name, email, password string) error {
	switch {
	case name == "" || email == "" || password == "":
		return domain.Invalid("nombre, email y password son obligatorios")
	case len(name) > 200:
		return domain.Invalid("nombre demasiado largo")
	case len(password) < minPasswordLen:
		return domain.Invalid("la contraseña debe tener al menos %d caracteres", minPasswordLen)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Invalid("email inválido: %s", email)
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// deviceID extrae dispositivo_id del fingerprint enviado en el login.
func deviceID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v struct {
		DeviceID string `json:"dispositivo_id"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v.DeviceID
}
