package entity

import (
	"encoding/json"
	"time"
)

// Alert aviso dirigido al usuario premium sobre la actividad de otro usuario.
type Alert struct {
	ID             string
	PremiumUserID  string
	Title          string
	Message        string
	Type           string
	AffectedUserID string
	Data           json.RawMessage
	Read           bool
	CreatedAt      time.Time
}

// AlertView alerta con el nombre del usuario afectado.
type AlertView struct {
	Alert
	AffectedUserName string
}

// Notification aviso general producido por la auditoría.
type Notification struct {
	ID            string
	PremiumUserID string
	Title         string
	Message       string
	Type          string
	Read          bool
	CreatedAt     time.Time
}

// Suspension registro histórico de una deshabilitación.
type Suspension struct {
	ID            string
	UserID        string
	Reason        string
	Message       string
	Duration      string
	SuspendedBy   string
	SuspendedAt   time.Time
	ReactivatedAt *time.Time
}
