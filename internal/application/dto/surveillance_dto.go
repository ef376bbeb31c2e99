package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// AlertResponse alerta premium con el nombre del usuario afectado.
type AlertResponse struct {
	ID               string          `json:"id"`
	Title            string          `json:"titulo"`
	Message          string          `json:"mensaje"`
	Type             string          `json:"tipo_alerta"`
	AffectedUserID   string          `json:"usuario_afectado_id,omitempty"`
	AffectedUserName string          `json:"usuario_afectado_nombre,omitempty"`
	Data             json.RawMessage `json:"datos_adicionales,omitempty" swaggertype:"object"`
	Read             bool            `json:"leida"`
	CreatedAt        time.Time       `json:"fecha_creacion"`
}

// NotificationResponse notificación general.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"titulo"`
	Message   string    `json:"mensaje"`
	Type      string    `json:"tipo"`
	Read      bool      `json:"leida"`
	CreatedAt time.Time `json:"fecha_creacion"`
}

// AuditResponse entrada de auditoría.
type AuditResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"usuario_id,omitempty"`
	UserName   string          `json:"usuario_nombre,omitempty"`
	Action     string          `json:"accion"`
	Table      string          `json:"tabla_afectada"`
	RecordID   string          `json:"registro_id"`
	Before     json.RawMessage `json:"datos_anteriores,omitempty" swaggertype:"object"`
	After      json.RawMessage `json:"datos_nuevos,omitempty" swaggertype:"object"`
	IP         string          `json:"ip_address,omitempty"`
	DeviceID   string          `json:"dispositivo_id,omitempty"`
	DeviceInfo json.RawMessage `json:"dispositivo_info,omitempty" swaggertype:"object"`
	CreatedAt  time.Time       `json:"fecha_accion"`
}

// HistoryResponse cambio de un campo.
type HistoryResponse struct {
	ID         string    `json:"id"`
	Table      string    `json:"tabla_afectada"`
	RecordID   string    `json:"registro_id"`
	Field      string    `json:"campo_modificado"`
	OldValue   string    `json:"valor_anterior"`
	NewValue   string    `json:"valor_nuevo"`
	ModifiedBy string    `json:"modificado_por,omitempty"`
	CreatedAt  time.Time `json:"fecha_modificacion"`
}

// SessionResponse sesión de login.
type SessionResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"usuario_id"`
	LoginAt         time.Time       `json:"fecha_login"`
	LogoutAt        *time.Time      `json:"fecha_logout"`
	IP              string          `json:"ip_address,omitempty"`
	UserAgent       string          `json:"user_agent,omitempty"`
	DeviceID        string          `json:"dispositivo_id,omitempty"`
	DeviceInfo      json.RawMessage `json:"dispositivo_info,omitempty" swaggertype:"object"`
	DurationSeconds *int64          `json:"duracion_segundos"`
}

// NavigationResponse visita a una sección.
type NavigationResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sesion_id,omitempty"`
	UserID    string    `json:"usuario_id"`
	Section   string    `json:"seccion_visitada"`
	Action    string    `json:"accion,omitempty"`
	Details   string    `json:"detalles,omitempty"`
	IP        string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"fecha"`
}

// NavigationRequest visita reportada por el cliente.
type NavigationRequest struct {
	Section string `json:"seccion" validate:"required"`
	Action  string `json:"accion"`
	Details string `json:"detalles"`
}

// ActionRequest acción reportada por el cliente.
type ActionRequest struct {
	Type   string          `json:"tipo_accion" validate:"required"`
	Module string          `json:"modulo"`
	Data   json.RawMessage `json:"datos_accion,omitempty" swaggertype:"object"`
}

func NewSessionResponses(list []*entity.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, SessionResponse{
			ID: s.ID, UserID: s.UserID, LoginAt: s.LoginAt, LogoutAt: s.LogoutAt, IP: s.IP,
			UserAgent: s.UserAgent, DeviceID: s.DeviceID, DeviceInfo: s.DeviceInfo, DurationSeconds: s.DurationSeconds,
		})
	}
	return out
}

func NewNavigationResponses(list []*entity.NavigationEvent) []NavigationResponse {
	out := make([]NavigationResponse, 0, len(list))
	for _, e := range list {
		out = append(out, NavigationResponse{
			ID: e.ID, SessionID: e.SessionID, UserID: e.UserID, Section: e.Section,
			Action: e.Action, Details: e.Details, IP: e.IP, CreatedAt: e.CreatedAt,
		})
	}
	return out
}
