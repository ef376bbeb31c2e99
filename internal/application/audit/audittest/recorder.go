// Package audittest Recorder en memoria para verificar el canal lateral en pruebas.
package audittest

import (
	"context"
	"sync"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
)

var _ audit.Recorder = (*Recorder)(nil)

// Recorder guarda cada llamada en orden.
type Recorder struct {
	mu          sync.Mutex
	audits      []audit.AuditInput
	navigations []audit.NavigationInput
	actions     []audit.ActionInput
	alerts      []audit.AlertInput
	devices     []audit.DeviceInput
}

func New() *Recorder { return &Recorder{} }

func (r *Recorder) RecordAudit(_ context.Context, in audit.AuditInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, in)
}

func (r *Recorder) RecordNavigation(_ context.Context, in audit.NavigationInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, in)
}

func (r *Recorder) RecordAction(_ context.Context, in audit.ActionInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, in)
}

func (r *Recorder) Alert(_ context.Context, in audit.AlertInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, in)
}

func (r *Recorder) RegisterDevice(_ context.Context, in audit.DeviceInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, in)
}

// Audits copia de las auditorías registradas.
func (r *Recorder) Audits() []audit.AuditInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.AuditInput(nil), r.audits...)
}

// AuditActions solo las acciones, en orden.
func (r *Recorder) AuditActions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.audits))
	for _, a := range r.audits {
		out = append(out, a.Action)
	}
	return out
}

func (r *Recorder) Alerts() []audit.AlertInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.AlertInput(nil), r.alerts...)
}

// AlertTypes tipos de alerta, en orden.
func (r *Recorder) AlertTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, a.Type)
	}
	return out
}

func (r *Recorder) Actions() []audit.ActionInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.ActionInput(nil), r.actions...)
}

func (r *Recorder) Navigations() []audit.NavigationInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.NavigationInput(nil), r.navigations...)
}

func (r *Recorder) Devices() []audit.DeviceInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.DeviceInput(nil), r.devices...)
}
