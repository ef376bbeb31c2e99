package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// RegisterRequest entrada para registro: nombre, email, password y rol opcional (vendedor por defecto).
type RegisterRequest struct {
	Name     string `json:"nombre" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"rol" validate:"omitempty,oneof=vendedor administrador"`
}

// CreateAdminRequest alta de un administrador limitado (solo premium).
type CreateAdminRequest struct {
	Name     string `json:"nombre" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"nombre"`
	Email      string    `json:"email"`
	Role       string    `json:"rol"`
	Phone      string    `json:"telefono,omitempty"`
	Enabled    bool      `json:"habilitado"`
	Premium    bool      `json:"es_premium"`
	Admin      bool      `json:"es_admin"`
	SuperAdmin bool      `json:"super_admin"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserActivityResponse usuario con su última actividad y cantidad de minutas.
type UserActivityResponse struct {
	UserResponse
	LastActivity *time.Time `json:"ultima_actividad"`
	MinuteCount  int        `json:"total_minutas"`
}

// LoginRequest credenciales más el fingerprint opcional del dispositivo.
type LoginRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required"`
	DeviceInfo json.RawMessage `json:"dispositivo_info,omitempty" swaggertype:"object"`
}

// LoginResponse token JWT, usuario y sesión abierta.
type LoginResponse struct {
	Token     string       `json:"token"`
	SessionID string       `json:"sesion_id"`
	User      UserResponse `json:"user"`
}

// SuspendRequest motivo y duración informativa de una suspensión.
type SuspendRequest struct {
	Reason   string `json:"motivo"`
	Message  string `json:"mensaje"`
	Duration string `json:"duracion"`
}

// NewUserResponse proyecta el usuario sin el hash de la contraseña.
func NewUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Phone:      u.Phone,
		Enabled:    u.Enabled,
		Premium:    u.Premium,
		Admin:      u.Role == entity.RoleAdministrador && !u.Premium,
		SuperAdmin: u.SuperAdmin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
