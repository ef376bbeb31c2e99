package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Tipos de job del canal de auditoría.
const (
	JobAudit      = "auditoria"
	JobNavigation = "navegacion"
	JobAction     = "accion"
	JobAlert      = "alerta"
	JobDevice     = "dispositivo"
)

// Job sobre genérico para las tareas en segundo plano.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher encola jobs. Las implementaciones no deben bloquear al llamador.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// DispatcherFunc adapta una función a Dispatcher.
type DispatcherFunc func(ctx context.Context, job Job) error

func (f DispatcherFunc) Dispatch(ctx context.Context, job Job) error { return f(ctx, job) }

// JobHandler procesa un job ya desencolado.
type JobHandler interface {
	Handle(ctx context.Context, job Job) error
}

// Meta datos del origen de la petición.
type Meta struct {
	IP         string          `json:"ip,omitempty"`
	DeviceID   string          `json:"dispositivo_id,omitempty"`
	DeviceInfo json.RawMessage `json:"dispositivo_info,omitempty"`
	DeviceTime *time.Time      `json:"fecha_dispositivo,omitempty"`
}

// payloads serializados en Job.Payload. Los IDs se asignan al despachar para que
// reintentos del mismo job sean idempotentes.

type auditPayload struct {
	ID       string          `json:"id"`
	UserID   string          `json:"usuario_id,omitempty"`
	Action   string          `json:"accion"`
	Table    string          `json:"tabla,omitempty"`
	RecordID string          `json:"registro_id,omitempty"`
	Before   json.RawMessage `json:"antes,omitempty"`
	After    json.RawMessage `json:"despues,omitempty"`
	Meta     Meta            `json:"meta"`
	At       time.Time       `json:"fecha"`
}

type navigationPayload struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sesion_id,omitempty"`
	UserID    string    `json:"usuario_id"`
	Section   string    `json:"seccion"`
	Action    string    `json:"accion,omitempty"`
	Details   string    `json:"detalles,omitempty"`
	IP        string    `json:"ip,omitempty"`
	At        time.Time `json:"fecha"`
}

type actionPayload struct {
	ID        string          `json:"id"`
	UserID    string          `json:"usuario_id,omitempty"`
	SessionID string          `json:"sesion_id,omitempty"`
	Type      string          `json:"tipo"`
	Module    string          `json:"modulo,omitempty"`
	Data      json.RawMessage `json:"datos,omitempty"`
	IP        string          `json:"ip,omitempty"`
	At        time.Time       `json:"fecha"`
}

type alertPayload struct {
	ID             string          `json:"id"`
	Title          string          `json:"titulo"`
	Message        string          `json:"mensaje"`
	Type           string          `json:"tipo"`
	AffectedUserID string          `json:"usuario_afectado_id,omitempty"`
	Data           json.RawMessage `json:"datos,omitempty"`
	At             time.Time       `json:"fecha"`
}

type devicePayload struct {
	ID       string    `json:"id"`
	UserID   string    `json:"usuario_id"`
	DeviceID string    `json:"dispositivo_id"`
	MAC      string    `json:"mac,omitempty"`
	Model    string    `json:"modelo,omitempty"`
	Platform string    `json:"plataforma,omitempty"`
	Browser  string    `json:"navegador,omitempty"`
	At       time.Time `json:"fecha"`
}
