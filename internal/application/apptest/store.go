// Package apptest repositorios en memoria para las pruebas de casos de uso.
package apptest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

// Store base en memoria compartida por todos los repositorios. Fail, si no es nil, se
// devuelve en toda operación (simula almacenamiento caído).
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	Fail error

	users         map[string]*entity.User
	suspensions   []*entity.Suspension
	vehicles      map[string]*entity.Vehicle
	clients       map[string]*entity.Client
	minutes       map[string]*entity.Minute
	history       []*entity.HistoryEntry
	audit         []*entity.AuditEntry
	alerts        []*entity.Alert
	notifications []*entity.Notification
	sessions      map[string]*entity.Session
	navigation    []*entity.NavigationEvent
	actions       []*entity.ActionEvent
	devices       map[string]*entity.Device
}

// NewStore crea una base vacía.
func NewStore() *Store {
	return &Store{
		users:    map[string]*entity.User{},
		vehicles: map[string]*entity.Vehicle{},
		clients:  map[string]*entity.Client{},
		minutes:  map[string]*entity.Minute{},
		sessions: map[string]*entity.Session{},
		devices:  map[string]*entity.Device{},
	}
}

func (s *Store) lock() error {
	s.mu.Lock()
	if s.Fail != nil {
		err := s.Fail
		s.mu.Unlock()
		return err
	}
	return nil
}

// ─── Semillas ────────────────────────────────────────────────────────────────

// SeedUser agrega un usuario habilitado.
func (s *Store) SeedUser(name, role string, premium bool) *entity.User {
	now := time.Now()
	u := &entity.User{
		ID: uuid.NewString(), Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@test.local",
		Role: role, Enabled: true, Premium: premium, CreatedAt: now, UpdatedAt: now,
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	c := *u
	return &c
}

// SeedVehicle agrega un vehículo nuevo con el precio y estado dados.
func (s *Store) SeedVehicle(price int64, state string) *entity.Vehicle {
	now := time.Now()
	v := &entity.Vehicle{
		ID: uuid.NewString(), Type: "auto", Brand: "Toyota", Model: "Corolla", Year: 2024,
		Condition: entity.ConditionNew, Price: decimal.NewFromInt(price), State: state,
		CreatedAt: now, UpdatedAt: now,
	}
	s.mu.Lock()
	s.vehicles[v.ID] = v
	s.mu.Unlock()
	c := *v
	return &c
}

// SeedClient agrega un cliente.
func (s *Store) SeedClient(dni string) *entity.Client {
	now := time.Now()
	c := &entity.Client{ID: uuid.NewString(), FirstName: "Ana", LastName: "Pérez", DNI: dni, CreatedAt: now, UpdatedAt: now}
	s.mu.Lock()
	s.clients[c.ID] = c
	s.mu.Unlock()
	cp := *c
	return &cp
}

// ─── Inspección ──────────────────────────────────────────────────────────────

// Vehicle copia actual del vehículo.
func (s *Store) Vehicle(id string) *entity.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vehicles[id]; ok {
		c := *v
		return &c
	}
	return nil
}

// Minute copia actual de la minuta.
func (s *Store) Minute(id string) *entity.Minute {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.minutes[id]; ok {
		c := *m
		return &c
	}
	return nil
}

// User copia actual del usuario.
func (s *Store) User(id string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		c := *u
		return &c
	}
	return nil
}

// MinutesFor minutas (incluye eliminadas) del vehículo.
func (s *Store) MinutesFor(vehicleID string) []entity.Minute {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Minute
	for _, m := range s.minutes {
		if m.VehicleID == vehicleID {
			out = append(out, *m)
		}
	}
	return out
}

func (s *Store) AuditEntries() []entity.AuditEntry {
	return snapshot(s, func() []*entity.AuditEntry { return s.audit })
}

func (s *Store) Alerts() []entity.Alert {
	return snapshot(s, func() []*entity.Alert { return s.alerts })
}

func (s *Store) Notifications() []entity.Notification {
	return snapshot(s, func() []*entity.Notification { return s.notifications })
}

func (s *Store) Suspensions() []entity.Suspension {
	return snapshot(s, func() []*entity.Suspension { return s.suspensions })
}

func (s *Store) History() []entity.HistoryEntry {
	return snapshot(s, func() []*entity.HistoryEntry { return s.history })
}

func (s *Store) NavigationEvents() []entity.NavigationEvent {
	return snapshot(s, func() []*entity.NavigationEvent { return s.navigation })
}

func (s *Store) ActionEvents() []entity.ActionEvent {
	return snapshot(s, func() []*entity.ActionEvent { return s.actions })
}

// Device copia del dispositivo por dispositivo_id.
func (s *Store) Device(deviceID string) *entity.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices[deviceID]; ok {
		c := *d
		return &c
	}
	return nil
}

func snapshot[T any](s *Store, get func() []*T) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := get()
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, *v)
	}
	return out
}

// ─── Transacciones ───────────────────────────────────────────────────────────

// Run serializa las transacciones y revierte vehículos, minutas e historial si fn falla.
func (s *Store) Run(ctx context.Context, fn func(vehicles repository.VehicleRepository, minutes repository.MinuteRepository, history repository.HistoryRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	vehicles := cloneMap(s.vehicles)
	minutes := cloneMap(s.minutes)
	history := len(s.history)
	s.mu.Unlock()

	if err := fn(Vehicles{s}, Minutes{s}, History{s}); err != nil {
		s.mu.Lock()
		s.vehicles, s.minutes, s.history = vehicles, minutes, s.history[:history]
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[T any](in map[string]*T) map[string]*T {
	out := make(map[string]*T, len(in))
	for k, v := range in {
		c := *v
		out[k] = &c
	}
	return out
}

// ─── Usuarios ────────────────────────────────────────────────────────────────

var (
	_ repository.UserRepository         = Users{}
	_ repository.SuspensionRepository   = Suspensions{}
	_ repository.VehicleRepository      = Vehicles{}
	_ repository.ClientRepository       = Clients{}
	_ repository.MinuteRepository       = Minutes{}
	_ repository.HistoryRepository      = History{}
	_ repository.AuditRepository        = Audit{}
	_ repository.AlertRepository        = Alerts{}
	_ repository.NotificationRepository = Notifications{}
	_ repository.TrackingRepository     = Tracking{}
	_ repository.DeviceRepository       = Devices{}
)

type Users struct{ s *Store }

func (s *Store) Users() Users { return Users{s} }

func (r Users) Create(_ context.Context, u *entity.User) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, e := range r.s.users {
		if strings.EqualFold(e.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
		if u.Premium && e.Premium {
			return &domain.ConflictError{Reason: domain.ConflictDuplicateKey, Field: "es_premium"}
		}
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r Users) GetByID(_ context.Context, id string) (*entity.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r Users) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r Users) FindPremium(_ context.Context) (*entity.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Premium {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r Users) SetEnabled(_ context.Context, id string, enabled bool) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Enabled = enabled
	u.UpdatedAt = time.Now()
	return nil
}

func (r Users) ListWithActivity(_ context.Context) ([]*entity.UserActivity, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.UserActivity
	for _, u := range r.s.users {
		a := &entity.UserActivity{User: *u}
		for _, m := range r.s.minutes {
			if m.VendorID == u.ID && !m.Deleted {
				a.MinuteCount++
			}
		}
		for _, sess := range r.s.sessions {
			if sess.UserID == u.ID && (a.LastActivity == nil || sess.LoginAt.After(*a.LastActivity)) {
				t := sess.LoginAt
				a.LastActivity = &t
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type Suspensions struct{ s *Store }

func (s *Store) SuspensionRepo() Suspensions { return Suspensions{s} }

func (r Suspensions) Create(_ context.Context, x *entity.Suspension) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	c := *x
	r.s.suspensions = append(r.s.suspensions, &c)
	return nil
}

func (r Suspensions) MarkReactivated(_ context.Context, userID string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, x := range r.s.suspensions {
		if x.UserID == userID && x.ReactivatedAt == nil {
			x.ReactivatedAt = &now
		}
	}
	return nil
}

// ─── Vehículos y clientes ────────────────────────────────────────────────────

type Vehicles struct{ s *Store }

func (s *Store) Vehicles() Vehicles { return Vehicles{s} }

func (r Vehicles) Create(_ context.Context, v *entity.Vehicle) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	c := *v
	r.s.vehicles[v.ID] = &c
	return nil
}

func (r Vehicles) GetByID(_ context.Context, id string) (*entity.Vehicle, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	if v, ok := r.s.vehicles[id]; ok {
		c := *v
		return &c, nil
	}
	return nil, nil
}

func (r Vehicles) GetForUpdate(ctx context.Context, id string) (*entity.Vehicle, error) {
	return r.GetByID(ctx, id)
}

func (r Vehicles) Update(_ context.Context, v *entity.Vehicle) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.vehicles[v.ID]
	if !ok || cur.Deleted {
		return domain.ErrNotFound
	}
	c := *v
	c.State, c.Deleted, c.DeletedBy, c.DeletedAt = cur.State, cur.Deleted, cur.DeletedBy, cur.DeletedAt
	r.s.vehicles[v.ID] = &c
	return nil
}

func (r Vehicles) SetState(_ context.Context, id, state string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.State = state
	return nil
}

func (r Vehicles) SoftDelete(_ context.Context, id, deletedBy string, at time.Time) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok || v.Deleted {
		return domain.ErrNotFound
	}
	v.Deleted, v.DeletedBy, v.DeletedAt = true, &deletedBy, &at
	return nil
}

func (r Vehicles) List(_ context.Context) ([]*entity.Vehicle, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Vehicle
	for _, v := range r.s.vehicles {
		if !v.Deleted {
			c := *v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type Clients struct{ s *Store }

func (s *Store) Clients() Clients { return Clients{s} }

func (r Clients) Create(_ context.Context, c *entity.Client) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, e := range r.s.clients {
		if !e.Deleted && e.DNI == c.DNI {
			return &domain.ConflictError{Reason: domain.ConflictDuplicateKey, Field: "dni"}
		}
	}
	cp := *c
	r.s.clients[c.ID] = &cp
	return nil
}

func (r Clients) GetByID(_ context.Context, id string) (*entity.Client, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	if c, ok := r.s.clients[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r Clients) Update(_ context.Context, c *entity.Client) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.clients[c.ID]
	if !ok || cur.Deleted {
		return domain.ErrNotFound
	}
	for _, e := range r.s.clients {
		if e.ID != c.ID && !e.Deleted && e.DNI == c.DNI {
			return &domain.ConflictError{Reason: domain.ConflictDuplicateKey, Field: "dni"}
		}
	}
	cp := *c
	r.s.clients[c.ID] = &cp
	return nil
}

func (r Clients) SoftDelete(_ context.Context, id, deletedBy string, at time.Time) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok || c.Deleted {
		return domain.ErrNotFound
	}
	c.Deleted, c.DeletedBy, c.DeletedAt = true, &deletedBy, &at
	return nil
}

func (r Clients) List(_ context.Context) ([]*entity.Client, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Client
	for _, c := range r.s.clients {
		if !c.Deleted {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return out, nil
}

// ─── Minutas e historial ─────────────────────────────────────────────────────

type Minutes struct{ s *Store }

func (s *Store) Minutes() Minutes { return Minutes{s} }

func (r Minutes) Create(_ context.Context, m *entity.Minute) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, e := range r.s.minutes {
		if e.VehicleID == m.VehicleID && !e.Deleted && isActive(e.State) && isActive(m.State) {
			return &domain.ConflictError{Reason: domain.ConflictDuplicateMinute, MinuteID: e.ID}
		}
	}
	c := *m
	r.s.minutes[m.ID] = &c
	return nil
}

func (r Minutes) GetByID(_ context.Context, id string) (*entity.Minute, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	if m, ok := r.s.minutes[id]; ok {
		c := *m
		return &c, nil
	}
	return nil, nil
}

func (r Minutes) GetForUpdate(ctx context.Context, id string) (*entity.Minute, error) {
	return r.GetByID(ctx, id)
}

func (r Minutes) GetActiveByVehicle(_ context.Context, vehicleID string) (*entity.Minute, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, m := range r.s.minutes {
		if m.VehicleID == vehicleID && !m.Deleted && isActive(m.State) {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r Minutes) Update(_ context.Context, m *entity.Minute) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.minutes[m.ID]
	if !ok || cur.Deleted {
		return domain.ErrNotFound
	}
	c := *m
	r.s.minutes[m.ID] = &c
	return nil
}

func (r Minutes) SoftDelete(_ context.Context, id, deletedBy string, at time.Time) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	m, ok := r.s.minutes[id]
	if !ok || m.Deleted {
		return domain.ErrNotFound
	}
	m.Deleted, m.DeletedBy, m.DeletedAt = true, &deletedBy, &at
	return nil
}

func (r Minutes) List(_ context.Context) ([]*entity.MinuteView, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.MinuteView
	for _, m := range r.s.minutes {
		if !m.Deleted {
			out = append(out, r.view(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r Minutes) GetView(_ context.Context, id string) (*entity.MinuteView, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	m, ok := r.s.minutes[id]
	if !ok || m.Deleted {
		return nil, nil
	}
	return r.view(m), nil
}

// view requiere s.mu tomado.
func (r Minutes) view(m *entity.Minute) *entity.MinuteView {
	v := &entity.MinuteView{Minute: *m}
	if veh, ok := r.s.vehicles[m.VehicleID]; ok {
		v.VehicleLabel, v.VehiclePlate = veh.Label(), veh.Plate
	}
	if c, ok := r.s.clients[m.ClientID]; ok {
		v.ClientName, v.ClientDNI = c.FullName(), c.DNI
	}
	if u, ok := r.s.users[m.VendorID]; ok {
		v.VendorName = u.Name
	}
	return v
}

func isActive(state string) bool {
	return state == entity.MinuteReserved || state == entity.MinuteStarted
}

type History struct{ s *Store }

func (s *Store) HistoryRepo() History { return History{s} }

func (r History) Append(_ context.Context, entries []*entity.HistoryEntry) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, e := range entries {
		c := *e
		r.s.history = append(r.s.history, &c)
	}
	return nil
}

func (r History) ListByRecord(_ context.Context, table, recordID string) ([]*entity.HistoryEntry, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.HistoryEntry
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if e := r.s.history[i]; e.Table == table && e.RecordID == recordID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// ─── Auditoría, alertas y tracking ───────────────────────────────────────────

type Audit struct{ s *Store }

func (s *Store) AuditRepo() Audit { return Audit{s} }

func (r Audit) Append(_ context.Context, e *entity.AuditEntry) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, x := range r.s.audit {
		if x.ID == e.ID {
			return nil
		}
	}
	c := *e
	r.s.audit = append(r.s.audit, &c)
	return nil
}

func (r Audit) ListRecent(_ context.Context, limit int) ([]*entity.AuditView, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.AuditView
	for i := len(r.s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		v := &entity.AuditView{AuditEntry: *r.s.audit[i]}
		if u, ok := r.s.users[v.UserID]; ok {
			v.UserName = u.Name
		}
		out = append(out, v)
	}
	return out, nil
}

type Alerts struct{ s *Store }

func (s *Store) AlertRepo() Alerts { return Alerts{s} }

func (r Alerts) Create(_ context.Context, a *entity.Alert) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, x := range r.s.alerts {
		if x.ID == a.ID {
			return nil
		}
	}
	c := *a
	r.s.alerts = append(r.s.alerts, &c)
	return nil
}

func (r Alerts) ListRecent(_ context.Context, premiumUserID string, limit int) ([]*entity.AlertView, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.AlertView
	for i := len(r.s.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		a := r.s.alerts[i]
		if a.PremiumUserID != premiumUserID {
			continue
		}
		v := &entity.AlertView{Alert: *a}
		if u, ok := r.s.users[a.AffectedUserID]; ok {
			v.AffectedUserName = u.Name
		}
		out = append(out, v)
	}
	return out, nil
}

func (r Alerts) MarkRead(_ context.Context, id, premiumUserID string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, a := range r.s.alerts {
		if a.ID == id && a.PremiumUserID == premiumUserID {
			a.Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

type Notifications struct{ s *Store }

func (s *Store) NotificationRepo() Notifications { return Notifications{s} }

func (r Notifications) Create(_ context.Context, n *entity.Notification) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, x := range r.s.notifications {
		if x.ID == n.ID {
			return nil
		}
	}
	c := *n
	r.s.notifications = append(r.s.notifications, &c)
	return nil
}

func (r Notifications) ListRecent(_ context.Context, premiumUserID string, limit int) ([]*entity.Notification, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Notification
	for i := len(r.s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := r.s.notifications[i]; n.PremiumUserID == premiumUserID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r Notifications) MarkRead(_ context.Context, id, premiumUserID string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, n := range r.s.notifications {
		if n.ID == id && n.PremiumUserID == premiumUserID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

type Tracking struct{ s *Store }

func (s *Store) TrackingRepo() Tracking { return Tracking{s} }

func (r Tracking) OpenSession(_ context.Context, x *entity.Session) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	c := *x
	r.s.sessions[x.ID] = &c
	return nil
}

func (r Tracking) GetSession(_ context.Context, id string) (*entity.Session, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	if x, ok := r.s.sessions[id]; ok {
		c := *x
		return &c, nil
	}
	return nil, nil
}

func (r Tracking) CloseSession(_ context.Context, id string, logoutAt time.Time, durationSeconds int64) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if x, ok := r.s.sessions[id]; ok && x.LogoutAt == nil {
		x.LogoutAt, x.DurationSeconds = &logoutAt, &durationSeconds
	}
	return nil
}

func (r Tracking) ListSessions(_ context.Context, userID string, limit int) ([]*entity.Session, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Session
	for _, x := range r.s.sessions {
		if userID == "" || x.UserID == userID {
			c := *x
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginAt.After(out[j].LoginAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r Tracking) AppendNavigation(_ context.Context, e *entity.NavigationEvent) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	c := *e
	r.s.navigation = append(r.s.navigation, &c)
	return nil
}

func (r Tracking) ListNavigation(_ context.Context, userID string, limit int) ([]*entity.NavigationEvent, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.NavigationEvent
	for i := len(r.s.navigation) - 1; i >= 0 && len(out) < limit; i-- {
		if e := r.s.navigation[i]; userID == "" || e.UserID == userID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r Tracking) AppendAction(_ context.Context, e *entity.ActionEvent) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	c := *e
	r.s.actions = append(r.s.actions, &c)
	return nil
}

type Devices struct{ s *Store }

func (s *Store) DeviceRepo() Devices { return Devices{s} }

func (r Devices) Touch(_ context.Context, d *entity.Device) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if cur, ok := r.s.devices[d.DeviceID]; ok {
		cur.LastSeenAt, cur.UserID = d.LastSeenAt, d.UserID
		return nil
	}
	c := *d
	r.s.devices[d.DeviceID] = &c
	return nil
}

// ErrStoreDown error transitorio listo para asignar a Store.Fail.
var ErrStoreDown = errors.Join(domain.ErrStoreUnavailable, errors.New("conexión rechazada"))
