package entity

import (
	"encoding/json"
	"time"
)

// Session sesión de login. LogoutAt y DurationSeconds quedan nulos mientras está abierta.
type Session struct {
	ID              string
	UserID          string
	LoginAt         time.Time
	LogoutAt        *time.Time
	IP              string
	UserAgent       string
	DeviceID        string
	DeviceInfo      json.RawMessage
	DurationSeconds *int64
}

// NavigationEvent visita a una sección de la aplicación.
type NavigationEvent struct {
	ID        string
	SessionID string
	UserID    string
	Section   string
	Action    string
	Details   string
	IP        string
	CreatedAt time.Time
}

// ActionEvent acción discreta de un usuario (puede ser anónima, ej. login fallido).
type ActionEvent struct {
	ID        string
	UserID    string
	SessionID string
	Type      string
	Module    string
	Data      json.RawMessage
	IP        string
	CreatedAt time.Time
}

// Device dispositivo desde el que se conecta un usuario.
type Device struct {
	ID           string
	UserID       string
	DeviceID     string
	MAC          string
	Model        string
	Platform     string
	Browser      string
	RegisteredAt time.Time
	LastSeenAt   time.Time
}
