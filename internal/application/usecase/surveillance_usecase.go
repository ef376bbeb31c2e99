package usecase

import (
	"context"
	"time"

	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

const (
	alertLimit        = 100
	notificationLimit = 50
	auditLimit        = 100
)

// SurveillanceStores repositorios de lectura del panel premium.
type SurveillanceStores struct {
	Users         repository.UserRepository
	Alerts        repository.AlertRepository
	Notifications repository.NotificationRepository
	Audit         repository.AuditRepository
	History       repository.HistoryRepository
}

// SurveillanceUseCase lecturas exclusivas del usuario premium.
type SurveillanceUseCase struct {
	st      SurveillanceStores
	timeout time.Duration
}

func NewSurveillanceUseCase(st SurveillanceStores, timeout time.Duration) *SurveillanceUseCase {
	return &SurveillanceUseCase{st: st, timeout: timeout}
}

// ListAlerts últimas alertas dirigidas al premium que consulta.
func (uc *SurveillanceUseCase) ListAlerts(ctx context.Context, actorID string) ([]dto.AlertResponse, error) {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	actor, err := uc.premium(ctx, actorID)
	if err != nil {
		return nil, err
	}
	list, err := uc.st.Alerts.ListRecent(ctx, actor.ID, alertLimit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAlertResponse(a))
	}
	return out, nil
}

// MarkAlertRead marca como leída una alerta propia.
func (uc *SurveillanceUseCase) MarkAlertRead(ctx context.Context, actorID, id string) error {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	actor, err := uc.premium(ctx, actorID)
	if err != nil {
		return err
	}
	return uc.st.Alerts.MarkRead(ctx, id, actor.ID)
}

// ListNotifications últimas notificaciones del premium.
func (uc *SurveillanceUseCase) ListNotifications(ctx context.Context, actorID string) ([]dto.NotificationResponse, error) {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	actor, err := uc.premium(ctx, actorID)
	if err != nil {
		return nil, err
	}
	list, err := uc.st.Notifications.ListRecent(ctx, actor.ID, notificationLimit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, dto.NotificationResponse{
			ID: n.ID, Title: n.Title, Message: n.Message, Type: n.Type, Read: n.Read, CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

func (uc *SurveillanceUseCase) MarkNotificationRead(ctx context.Context, actorID, id string) error {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	actor, err := uc.premium(ctx, actorID)
	if err != nil {
		return err
	}
	return uc.st.Notifications.MarkRead(ctx, id, actor.ID)
}

// ListAudit registro de auditoría más reciente primero.
func (uc *SurveillanceUseCase) ListAudit(ctx context.Context, actorID string) ([]dto.AuditResponse, error) {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	if _, err := uc.premium(ctx, actorID); err != nil {
		return nil, err
	}
	list, err := uc.st.Audit.ListRecent(ctx, auditLimit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.AuditResponse{
			ID: e.ID, UserID: e.UserID, UserName: e.UserName, Action: e.Action, Table: e.Table,
			RecordID: e.RecordID, Before: e.Before, After: e.After, IP: e.IP, DeviceID: e.DeviceID,
			DeviceInfo: e.DeviceInfo, CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

// History cambios por campo de un registro, más reciente primero.
func (uc *SurveillanceUseCase) History(ctx context.Context, actorID, table, recordID string) ([]dto.HistoryResponse, error) {
	if table == "" || recordID == "" {
		return nil, domain.Invalid("tabla y registro son obligatorios")
	}
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	if _, err := uc.premium(ctx, actorID); err != nil {
		return nil, err
	}
	list, err := uc.st.History.ListByRecord(ctx, table, recordID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistoryResponse, 0, len(list))
	for _, h := range list {
		out = append(out, dto.HistoryResponse{
			ID: h.ID, Table: h.Table, RecordID: h.RecordID, Field: h.Field,
			OldValue: h.OldValue, NewValue: h.NewValue, ModifiedBy: h.ModifiedBy, CreatedAt: h.CreatedAt,
		})
	}
	return out, nil
}

func (uc *SurveillanceUseCase) premium(ctx context.Context, actorID string) (policy.Actor, error) {
	actor, _, err := authorize(ctx, uc.st.Users, actorID, policy.ReadSurveillance, policy.Target{})
	return actor, err
}

func toAlertResponse(a *entity.AlertView) dto.AlertResponse {
	return dto.AlertResponse{
		ID:               a.ID,
		Title:            a.Title,
		Message:          a.Message,
		Type:             a.Type,
		AffectedUserID:   a.AffectedUserID,
		AffectedUserName: a.AffectedUserName,
		Data:             a.Data,
		Read:             a.Read,
		CreatedAt:        a.CreatedAt,
	}
}
