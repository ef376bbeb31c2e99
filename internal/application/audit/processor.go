package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

// Stores repositorios que escribe el procesador.
type Stores struct {
	Users         repository.UserRepository
	Audit         repository.AuditRepository
	Notifications repository.NotificationRepository
	Alerts        repository.AlertRepository
	Tracking      repository.TrackingRepository
	Devices       repository.DeviceRepository
}

var _ JobHandler = (*Processor)(nil)

// Processor consume los jobs del canal lateral: persiste el registro y decide si
// corresponde avisar al usuario premium.
type Processor struct {
	st      Stores
	trusted *policy.AllowList
	log     zerolog.Logger
}

// NewProcessor construye el procesador. trusted son los orígenes que no generan alertas.
func NewProcessor(st Stores, trusted *policy.AllowList, log zerolog.Logger) *Processor {
	return &Processor{st: st, trusted: trusted, log: log}
}

// Handle procesa un job. Un error indica que el job puede reintentarse.
func (p *Processor) Handle(ctx context.Context, job Job) error {
	switch job.Type {
	case JobAudit:
		var in auditPayload
		if err := json.Unmarshal(job.Payload, &in); err != nil {
			return fmt.Errorf("decode %s: %w", job.Type, err)
		}
		return p.audit(ctx, in)
	case JobNavigation:
		var in navigationPayload
		if err := json.Unmarshal(job.Payload, &in); err != nil {
			return fmt.Errorf("decode %s: %w", job.Type, err)
		}
		return p.navigation(ctx, in)
	case JobAction:
		var in actionPayload
		if err := json.Unmarshal(job.Payload, &in); err != nil {
			return fmt.Errorf("decode %s: %w", job.Type, err)
		}
		return p.action(ctx, in)
	case JobAlert:
		var in alertPayload
		if err := json.Unmarshal(job.Payload, &in); err != nil {
			return fmt.Errorf("decode %s: %w", job.Type, err)
		}
		return p.alert(ctx, in)
	case JobDevice:
		var in devicePayload
		if err := json.Unmarshal(job.Payload, &in); err != nil {
			return fmt.Errorf("decode %s: %w", job.Type, err)
		}
		return p.st.Devices.Touch(ctx, &entity.Device{
			ID: in.ID, UserID: in.UserID, DeviceID: in.DeviceID, MAC: in.MAC,
			Model: in.Model, Platform: in.Platform, Browser: in.Browser,
			RegisteredAt: in.At, LastSeenAt: in.At,
		})
	default:
		return fmt.Errorf("tipo de job desconocido: %q", job.Type)
	}
}

func (p *Processor) audit(ctx context.Context, in auditPayload) error {
	err := p.st.Audit.Append(ctx, &entity.AuditEntry{
		ID:         in.ID,
		UserID:     in.UserID,
		Action:     in.Action,
		Table:      in.Table,
		RecordID:   in.RecordID,
		Before:     in.Before,
		After:      in.After,
		IP:         in.Meta.IP,
		DeviceID:   in.Meta.DeviceID,
		DeviceInfo: in.Meta.DeviceInfo,
		DeviceTime: in.Meta.DeviceTime,
		CreatedAt:  in.At,
	})
	if err != nil {
		return err
	}
	if in.UserID == "" {
		return nil
	}
	actor, err := p.st.Users.GetByID(ctx, in.UserID)
	if err != nil {
		return err
	}
	if actor == nil || actor.Premium {
		return nil
	}
	premium, err := p.premium(ctx)
	if err != nil || premium == nil {
		return err
	}
	return p.st.Notifications.Create(ctx, &entity.Notification{
		ID:            derivedID(in.ID, "notificacion"),
		PremiumUserID: premium.ID,
		Title:         "Cambio Registrado",
		Message:       fmt.Sprintf("El usuario %s realizó: %s en %s", actor.Name, in.Action, in.Table),
		Type:          "auditoria",
		CreatedAt:     in.At,
	})
}

func (p *Processor) navigation(ctx context.Context, in navigationPayload) error {
	err := p.st.Tracking.AppendNavigation(ctx, &entity.NavigationEvent{
		ID: in.ID, SessionID: in.SessionID, UserID: in.UserID, Section: in.Section,
		Action: in.Action, Details: in.Details, IP: in.IP, CreatedAt: in.At,
	})
	if err != nil {
		return err
	}
	user, premium, err := p.surveilled(ctx, in.UserID, in.IP)
	if err != nil || premium == nil {
		return err
	}
	data, _ := json.Marshal(map[string]string{"seccion": in.Section, "accion": in.Action, "detalles": in.Details})
	return p.st.Alerts.Create(ctx, &entity.Alert{
		ID:             derivedID(in.ID, "alerta"),
		PremiumUserID:  premium.ID,
		Title:          "Navegación Detectada",
		Message:        fmt.Sprintf("Usuario %s visitó: %s - %s", user.Name, in.Section, in.Action),
		Type:           "pagina_visitada",
		AffectedUserID: user.ID,
		Data:           data,
		CreatedAt:      in.At,
	})
}

func (p *Processor) action(ctx context.Context, in actionPayload) error {
	err := p.st.Tracking.AppendAction(ctx, &entity.ActionEvent{
		ID: in.ID, UserID: in.UserID, SessionID: in.SessionID, Type: in.Type,
		Module: in.Module, Data: in.Data, IP: in.IP, CreatedAt: in.At,
	})
	if err != nil {
		return err
	}
	user, premium, err := p.surveilled(ctx, in.UserID, in.IP)
	if err != nil || premium == nil {
		return err
	}
	data, _ := json.Marshal(map[string]any{"tipo_accion": in.Type, "modulo": in.Module, "datos_accion": in.Data})
	return p.st.Alerts.Create(ctx, &entity.Alert{
		ID:             derivedID(in.ID, "alerta"),
		PremiumUserID:  premium.ID,
		Title:          "Acción Detectada",
		Message:        fmt.Sprintf("Usuario %s realizó: %s en %s", user.Name, in.Type, in.Module),
		Type:           "accion_critica",
		AffectedUserID: user.ID,
		Data:           data,
		CreatedAt:      in.At,
	})
}

func (p *Processor) alert(ctx context.Context, in alertPayload) error {
	premium, err := p.premium(ctx)
	if err != nil || premium == nil {
		return err
	}
	if in.AffectedUserID != "" && in.AffectedUserID == premium.ID {
		return nil
	}
	return p.st.Alerts.Create(ctx, &entity.Alert{
		ID:             in.ID,
		PremiumUserID:  premium.ID,
		Title:          in.Title,
		Message:        in.Message,
		Type:           in.Type,
		AffectedUserID: in.AffectedUserID,
		Data:           in.Data,
		CreatedAt:      in.At,
	})
}

// surveilled devuelve el usuario observado y el premium destinatario. premium es nil
// cuando no corresponde alertar: origen confiable, usuario anónimo o premium, o sin premium activo.
func (p *Processor) surveilled(ctx context.Context, userID, ip string) (*entity.User, *entity.User, error) {
	if userID == "" || p.trusted.Contains(ip) {
		return nil, nil, nil
	}
	user, err := p.st.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.Premium {
		return nil, nil, nil
	}
	premium, err := p.premium(ctx)
	if err != nil || premium == nil {
		return nil, nil, err
	}
	return user, premium, nil
}

// premium usuario premium habilitado, o nil.
func (p *Processor) premium(ctx context.Context) (*entity.User, error) {
	u, err := p.st.Users.FindPremium(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.Enabled {
		p.log.Debug().Msg("audit: sin usuario premium habilitado")
		return nil, nil
	}
	return u, nil
}

// derivedID id estable para filas derivadas de un mismo evento.
func derivedID(sourceID, kind string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(sourceID+"/"+kind)).String()
}
