package entity

import "time"

// Roles válidos para User. "premium" no es un rol almacenado: se deriva de EsPremium.
const (
	RoleVendedor      = "vendedor"
	RoleAdministrador = "administrador"
)

// User cuenta del sistema. Nunca se borra físicamente: se deshabilita.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         string // vendedor, administrador
	Phone        string
	Enabled      bool
	Premium      bool // observador encubierto; a lo sumo uno
	SuperAdmin   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserActivity usuario con su última actividad registrada y cantidad de minutas.
type UserActivity struct {
	User
	LastActivity *time.Time
	MinuteCount  int
}
