package entity

import (
	"encoding/json"
	"time"
)

// AuditEntry registro inmutable de una acción. UserID vacío para intentos anónimos.
type AuditEntry struct {
	ID         string // ULID, ordenable por tiempo
	UserID     string
	Action     string
	Table      string
	RecordID   string
	Before     json.RawMessage
	After      json.RawMessage
	IP         string
	DeviceID   string
	DeviceInfo json.RawMessage
	DeviceTime *time.Time
	CreatedAt  time.Time
}

// AuditView entrada de auditoría con el nombre del actor.
type AuditView struct {
	AuditEntry
	UserName string
}

// HistoryEntry diferencia por campo (valor anterior y nuevo) de una edición.
type HistoryEntry struct {
	ID         string
	Table      string
	RecordID   string
	Field      string
	OldValue   string
	NewValue   string
	ModifiedBy string
	CreatedAt  time.Time
}
