// Package export vuelca la base completa a JSON o Excel y mantiene el respaldo periódico.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

// Table filas genéricas de una tabla, columnas en el orden de la consulta.
type Table struct {
	Name    string
	Columns []string
	Rows    []map[string]any
}

// Snapshot volcado consistente de todas las tablas exportables.
type Snapshot struct {
	TakenAt time.Time
	Tables  []Table
}

// MarshalJSON {"fecha_exportacion": ..., "tablas": {"usuarios": [...], ...}}.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	tables := make(map[string][]map[string]any, len(s.Tables))
	for _, t := range s.Tables {
		rows := t.Rows
		if rows == nil {
			rows = []map[string]any{}
		}
		tables[t.Name] = rows
	}
	return json.Marshal(struct {
		TakenAt time.Time                   `json:"fecha_exportacion"`
		Tables  map[string][]map[string]any `json:"tablas"`
	}{s.TakenAt, tables})
}

// Snapshotter lee todas las tablas exportables.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// WorkbookWriter arma un libro con una hoja por tabla.
type WorkbookWriter interface {
	Workbook(s *Snapshot) ([]byte, error)
}

// Sink destino de los respaldos.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// Service exportación bajo demanda (solo premium) y respaldo automático.
type Service struct {
	snap     Snapshotter
	book     WorkbookWriter
	sink     Sink
	users    repository.UserRepository
	recorder audit.Recorder
	log      zerolog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// Deps dependencias del Service. Sink puede ser nil si el respaldo está deshabilitado.
type Deps struct {
	Snapshotter Snapshotter
	Workbook    WorkbookWriter
	Sink        Sink
	Users       repository.UserRepository
	Recorder    audit.Recorder
	Log         zerolog.Logger
	Timeout     time.Duration
	Now         func() time.Time
}

func NewService(d Deps) *Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		snap: d.Snapshotter, book: d.Workbook, sink: d.Sink, users: d.Users,
		recorder: d.Recorder, log: d.Log, timeout: d.Timeout, now: now,
	}
}

// File contenido exportado listo para descargar.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportJSON volcado completo en JSON.
func (s *Service) ExportJSON(ctx context.Context, actorID string, meta audit.Meta) (*File, error) {
	actor, snap, err := s.authorizedSnapshot(ctx, actorID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("exportar json: %w", err)
	}
	s.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "EXPORTACION_DATOS", After: summary(snap), Meta: meta,
	})
	return &File{
		Name:        "concesionaria_" + snap.TakenAt.Format("20060102_150405") + ".json",
		ContentType: "application/json",
		Data:        data,
	}, nil
}

// ExportExcel volcado completo en un libro xlsx.
func (s *Service) ExportExcel(ctx context.Context, actorID string, meta audit.Meta) (*File, error) {
	actor, snap, err := s.authorizedSnapshot(ctx, actorID)
	if err != nil {
		return nil, err
	}
	data, err := s.book.Workbook(snap)
	if err != nil {
		return nil, fmt.Errorf("exportar excel: %w", err)
	}
	s.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "EXPORTACION_EXCEL", After: summary(snap), Meta: meta,
	})
	return &File{
		Name:        "concesionaria_" + snap.TakenAt.Format("20060102_150405") + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

func (s *Service) authorizedSnapshot(ctx context.Context, actorID string) (policy.Actor, *Snapshot, error) {
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()
	actor, _, err := policy.Load(ctx, s.users, actorID)
	if err != nil {
		return policy.Actor{}, nil, err
	}
	if !policy.CanPerform(actor, policy.ExportData, policy.Target{}) {
		return policy.Actor{}, nil, domain.ErrForbidden
	}
	snap, err := s.snap.Snapshot(ctx)
	if err != nil {
		return policy.Actor{}, nil, err
	}
	return actor, snap, nil
}

// Backup escribe un respaldo JSON en el sink y devuelve su nombre.
func (s *Service) Backup(ctx context.Context) (string, error) {
	if s.sink == nil {
		return "", fmt.Errorf("respaldo: sin destino configurado")
	}
	snap, err := s.snap.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("respaldo: %w", err)
	}
	name := BackupName(s.now())
	if err := s.sink.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("respaldo %s: %w", name, err)
	}
	s.recorder.RecordAudit(ctx, audit.AuditInput{
		Action: "RESPALDO_AUTOMATICO", RecordID: name, After: summary(snap),
	})
	return name, nil
}

// BackupName nombre ordenable lexicográficamente por fecha.
func BackupName(at time.Time) string {
	return "respaldo_" + at.UTC().Format("20060102T150405.000") + ".json"
}

// RunBackups respalda cada interval hasta que ctx se cancele. Los fallos solo se registran.
func (s *Service) RunBackups(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			bctx, cancel := deadline.For(ctx, s.timeout)
			name, err := s.Backup(bctx)
			cancel()
			if err != nil {
				s.log.Error().Err(err).Msg("respaldo automático fallido")
				continue
			}
			s.log.Info().Str("archivo", name).Msg("respaldo automático")
		}
	}
}

// summary cantidad de filas por tabla.
func summary(snap *Snapshot) map[string]int {
	out := make(map[string]int, len(snap.Tables))
	for _, t := range snap.Tables {
		out[t.Name] = len(t.Rows)
	}
	return out
}
