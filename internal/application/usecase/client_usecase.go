package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

const clientsTable = "clientes"

// ClientUseCase casos de uso de clientes.
type ClientUseCase struct {
	repo     repository.ClientRepository
	users    repository.UserRepository
	recorder audit.Recorder
	timeout  time.Duration
	now      func() time.Time
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository, users repository.UserRepository, recorder audit.Recorder, timeout time.Duration) *ClientUseCase {
	return &ClientUseCase{repo: repo, users: users, recorder: recorder, timeout: timeout, now: time.Now}
}

// List clientes activos ordenados por apellido.
func (uc *ClientUseCase) List(ctx context.Context) ([]dto.ClientResponse, error) {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toClientResponse(c))
	}
	return out, nil
}

// Create alta de cliente; un DNI repetido entre clientes activos es ConflictError.
func (uc *ClientUseCase) Create(ctx context.Context, actorID string, in dto.CreateClientRequest, meta audit.Meta) (*dto.ClientResponse, error) {
	c := &entity.Client{
		FirstName: personName(in.FirstName),
		LastName:  personName(in.LastName),
		DNI:       normalizeDNI(in.DNI),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Address:   squash(in.Address),
		Notes:     in.Notes,
	}
	if c.FirstName == "" || c.LastName == "" || c.DNI == "" {
		return nil, domain.Invalid("nombre, apellido y DNI son obligatorios")
	}

	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	actor, _, err := policy.Load(ctx, uc.users, actorID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	c.ID, c.CreatedAt, c.UpdatedAt = uuid.NewString(), now, now
	if err := uc.repo.Create(ctx, c); err != nil {
		uc.rejectDuplicate(ctx, actor.ID, "", c.DNI, err, meta)
		return nil, err
	}
	out := toClientResponse(c)
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "CREACION_CLIENTE", Table: clientsTable, RecordID: c.ID, After: out, Meta: meta,
	})
	return out, nil
}

// Update patch parcial de un cliente activo.
func (uc *ClientUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateClientRequest, meta audit.Meta) (*dto.ClientResponse, error) {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	actor, _, err := authorize(ctx, uc.users, actorID, policy.UpdateClient, policy.Target{})
	if err != nil {
		return nil, err
	}
	if in.Empty() {
		return nil, domain.ErrNothingToUpdate
	}

	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.Deleted {
		return nil, domain.ErrNotFound
	}
	before := toClientResponse(c)

	if in.FirstName != nil {
		c.FirstName = personName(*in.FirstName)
	}
	if in.LastName != nil {
		c.LastName = personName(*in.LastName)
	}
	if in.DNI != nil {
		c.DNI = normalizeDNI(*in.DNI)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		c.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Address != nil {
		c.Address = squash(*in.Address)
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if c.FirstName == "" || c.LastName == "" || c.DNI == "" {
		return nil, domain.Invalid("nombre, apellido y DNI no pueden quedar vacíos")
	}

	c.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, c); err != nil {
		uc.rejectDuplicate(ctx, actor.ID, id, c.DNI, err, meta)
		return nil, err
	}
	out := toClientResponse(c)
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "ACTUALIZACION_CLIENTE", Table: clientsTable, RecordID: id,
		Before: before, After: out, Meta: meta,
	})
	return out, nil
}

// rejectDuplicate audita y alerta un DNI repetido; cualquier otro error se ignora aquí.
func (uc *ClientUseCase) rejectDuplicate(ctx context.Context, actorID, clientID, dni string, err error, meta audit.Meta) {
	var ce *domain.ConflictError
	if !errors.As(err, &ce) || ce.Reason != domain.ConflictDuplicateKey {
		return
	}
	data := map[string]string{"dni": dni}
	if clientID != "" {
		data["cliente_id"] = clientID
	}
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actorID, Action: "INTENTO_CLIENTE_DUPLICADO", Table: clientsTable, RecordID: clientID, After: data, Meta: meta,
	})
	uc.recorder.Alert(ctx, audit.AlertInput{
		Title:          "Intento de Cliente Duplicado",
		Message:        fmt.Sprintf("El usuario %s intentó registrar un DNI existente: %s", actorID, dni),
		Type:           "cliente_duplicado",
		AffectedUserID: actorID,
		Data:           data,
	})
}

// Delete baja lógica; libera el DNI para un nuevo alta.
func (uc *ClientUseCase) Delete(ctx context.Context, actorID, id string, meta audit.Meta) error {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	actor, _, err := authorize(ctx, uc.users, actorID, policy.DeleteClient, policy.Target{})
	if err != nil {
		return err
	}
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil || c.Deleted {
		return domain.ErrNotFound
	}
	if err := uc.repo.SoftDelete(ctx, id, actor.ID, uc.now()); err != nil {
		return err
	}
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "ELIMINACION_CLIENTE", Table: clientsTable, RecordID: id,
		Before: toClientResponse(c), After: map[string]bool{"eliminado": true}, Meta: meta,
	})
	return nil
}

// normalizeDNI quita puntos y espacios ("30.111.222" → "30111222").
func normalizeDNI(s string) string {
	return strings.NewReplacer(".", "", " ", "", "-", "").Replace(strings.TrimSpace(s))
}

func toClientResponse(c *entity.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		DNI:       c.DNI,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
