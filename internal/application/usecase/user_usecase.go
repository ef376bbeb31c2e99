package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

const usersTable = "usuarios"

// UserUseCase administración de usuarios reservada al premium. El premium nunca puede
// suspenderse ni eliminarse por esta vía.
type UserUseCase struct {
	repo        repository.UserRepository
	suspensions repository.SuspensionRepository
	recorder    audit.Recorder
	log         zerolog.Logger
	timeout     time.Duration
	now         func() time.Time
}

// NewUserUseCase construye el caso de uso con los puertos de persistencia.
func NewUserUseCase(repo repository.UserRepository, suspensions repository.SuspensionRepository, recorder audit.Recorder, log zerolog.Logger, timeout time.Duration) *UserUseCase {
	return &UserUseCase{repo: repo, suspensions: suspensions, recorder: recorder, log: log, timeout: timeout, now: time.Now}
}

// ListWithActivity todos los usuarios con última actividad y cantidad de minutas.
func (uc *UserUseCase) ListWithActivity(ctx context.Context, actorID string) ([]dto.UserActivityResponse, error) {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	if _, _, err := authorize(ctx, uc.repo, actorID, policy.ReadSurveillance, policy.Target{}); err != nil {
		return nil, err
	}
	list, err := uc.repo.ListWithActivity(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserActivityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.UserActivityResponse{
			UserResponse: *dto.NewUserResponse(&a.User),
			LastActivity: a.LastActivity,
			MinuteCount:  a.MinuteCount,
		})
	}
	return out, nil
}

// Suspend deshabilita al usuario y deja registro de la suspensión.
func (uc *UserUseCase) Suspend(ctx context.Context, actorID, targetID string, in dto.SuspendRequest, meta audit.Meta) error {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	actor, target, err := uc.target(ctx, actorID, targetID, policy.SuspendUser)
	if err != nil {
		return err
	}
	if err := uc.repo.SetEnabled(ctx, target.ID, false); err != nil {
		return err
	}
	s := &entity.Suspension{
		ID:          uuid.NewString(),
		UserID:      target.ID,
		Reason:      in.Reason,
		Message:     in.Message,
		Duration:    in.Duration,
		SuspendedBy: actor.ID,
		SuspendedAt: uc.now(),
	}
	if err := uc.suspensions.Create(ctx, s); err != nil {
		uc.restoreEnabled(ctx, target)
		return err
	}

	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "SUSPENSION_USUARIO", Table: usersTable, RecordID: target.ID,
		Before: map[string]bool{"habilitado": target.Enabled},
		After:  map[string]any{"habilitado": false, "motivo": in.Reason},
		Meta:   meta,
	})
	uc.recorder.Alert(ctx, audit.AlertInput{
		Title:          "Usuario Suspendido",
		Message:        fmt.Sprintf("El usuario %s (%s) ha sido suspendido por: %s", target.Name, target.Email, in.Reason),
		Type:           "usuario_suspendido",
		AffectedUserID: target.ID,
		Data:           in,
	})
	return nil
}

// Reactivate vuelve a habilitar al usuario y cierra su suspensión abierta.
func (uc *UserUseCase) Reactivate(ctx context.Context, actorID, targetID string, meta audit.Meta) error {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	actor, target, err := uc.target(ctx, actorID, targetID, policy.ReactivateUser)
	if err != nil {
		return err
	}
	if err := uc.repo.SetEnabled(ctx, target.ID, true); err != nil {
		return err
	}
	if err := uc.suspensions.MarkReactivated(ctx, target.ID); err != nil {
		uc.restoreEnabled(ctx, target)
		return err
	}

	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "REACTIVACION_USUARIO", Table: usersTable, RecordID: target.ID,
		Before: map[string]bool{"habilitado": target.Enabled},
		After:  map[string]bool{"habilitado": true},
		Meta:   meta,
	})
	uc.recorder.Alert(ctx, audit.AlertInput{
		Title:          "Usuario Reactivado",
		Message:        fmt.Sprintf("El usuario %s (%s) ha sido reactivado", target.Name, target.Email),
		Type:           "usuario_reactivado",
		AffectedUserID: target.ID,
	})
	return nil
}

// restoreEnabled deshace SetEnabled cuando falla el registro de la suspensión.
func (uc *UserUseCase) restoreEnabled(ctx context.Context, target *entity.User) {
	if err := uc.repo.SetEnabled(ctx, target.ID, target.Enabled); err != nil {
		uc.log.Error().Err(err).Str("user_id", target.ID).Bool("habilitado", target.Enabled).
			Msg("usuarios: no se pudo restaurar el estado tras un fallo de suspensión")
	}
}

// Delete deshabilita la cuenta de forma definitiva; la fila se conserva para la auditoría.
func (uc *UserUseCase) Delete(ctx context.Context, actorID, targetID string, meta audit.Meta) error {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	actor, target, err := uc.target(ctx, actorID, targetID, policy.DeleteUser)
	if err != nil {
		return err
	}
	if err := uc.repo.SetEnabled(ctx, target.ID, false); err != nil {
		return err
	}
	before := dto.NewUserResponse(target)
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "ELIMINACION_USUARIO", Table: usersTable, RecordID: target.ID,
		Before: before, After: map[string]bool{"eliminado": true}, Meta: meta,
	})
	uc.recorder.Alert(ctx, audit.AlertInput{
		Title:          "Usuario Eliminado",
		Message:        fmt.Sprintf("El usuario %s (%s) ha sido eliminado del sistema", target.Name, target.Email),
		Type:           "usuario_eliminado",
		AffectedUserID: target.ID,
		Data:           map[string]any{"datos_anteriores": before},
	})
	return nil
}

// target carga actor y usuario objetivo y evalúa la política con los datos del objetivo.
func (uc *UserUseCase) target(ctx context.Context, actorID, targetID string, op policy.Operation) (policy.Actor, *entity.User, error) {
	actor, _, err := policy.Load(ctx, uc.repo, actorID)
	if err != nil {
		return policy.Actor{}, nil, err
	}
	target, err := uc.repo.GetByID(ctx, targetID)
	if err != nil {
		return policy.Actor{}, nil, err
	}
	if target == nil {
		return policy.Actor{}, nil, domain.ErrUserNotFound
	}
	if !policy.CanPerform(actor, op, policy.Target{Premium: target.Premium}) {
		return policy.Actor{}, nil, domain.ErrForbidden
	}
	return actor, target, nil
}
