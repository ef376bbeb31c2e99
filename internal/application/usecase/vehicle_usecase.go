package usecase

import (
	"context"
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

const vehiclesTable = "vehiculos"

// VehicleUseCase inventario de vehículos. El estado nunca se modifica aquí.
type VehicleUseCase struct {
	repo     repository.VehicleRepository
	users    repository.UserRepository
	recorder audit.Recorder
	timeout  time.Duration
	now      func() time.Time
}

// NewVehicleUseCase construye el caso de uso.
func NewVehicleUseCase(repo repository.VehicleRepository, users repository.UserRepository, recorder audit.Recorder, timeout time.Duration) *VehicleUseCase {
	return &VehicleUseCase{repo: repo, users: users, recorder: recorder, timeout: timeout, now: time.Now}
}

// List vehículos no eliminados, más nuevos primero.
func (uc *VehicleUseCase) List(ctx context.Context) ([]dto.VehicleResponse, error) {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VehicleResponse, 0, len(list))
	for _, v := range list {
		out = append(out, *toVehicleResponse(v))
	}
	return out, nil
}

// Create da de alta un vehículo disponible. Cualquier usuario habilitado puede hacerlo.
func (uc *VehicleUseCase) Create(ctx context.Context, actorID string, in dto.CreateVehicleRequest, meta audit.Meta) (*dto.VehicleResponse, error) {
	in.Type = squash(in.Type)
	in.Brand = brandName(in.Brand)
	in.Model = brandName(in.Model)
	in.Version = squash(in.Version)
	in.Plate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(in.Plate), " ", ""))
	if err := uc.validateCreate(in); err != nil {
		return nil, err
	}

	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()
	actor, _, err := policy.Load(ctx, uc.users, actorID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	v := &entity.Vehicle{
		ID:        uuid.NewString(),
		Type:      in.Type,
		Brand:     in.Brand,
		Model:     in.Model,
		Version:   in.Version,
		Year:      in.Year,
		Condition: in.Condition,
		Price:     in.Price,
		Plate:     in.Plate,
		Mileage:   in.Mileage,
		Notes:     in.Notes,
		Image:     in.Image,
		State:     entity.VehicleAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	out := toVehicleResponse(v)
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "CREACION_VEHICULO", Table: vehiclesTable, RecordID: v.ID, After: out, Meta: meta,
	})
	return out, nil
}

func (uc *VehicleUseCase) validateCreate(in dto.CreateVehicleRequest) error {
	switch {
	case in.Type == "" || in.Brand == "" || in.Model == "":
		return domain.Invalid("tipo, marca y modelo son obligatorios")
	case in.Condition != entity.ConditionNew && in.Condition != entity.ConditionUsed:
		return domain.Invalid("condicion debe ser nuevo o usado")
	case in.Condition == entity.ConditionUsed && in.Plate == "":
		return domain.Invalid("el dominio es obligatorio para vehículos usados")
	case in.Year < 1900 || in.Year > uc.now().Year()+1:
		return domain.Invalid("anio fuera de rango: %d", in.Year)
	case !in.Price.IsPositive():
		return domain.Invalid("precio debe ser mayor a 0")
	case in.Mileage < 0:
		return domain.Invalid("kilometraje no puede ser negativo")
	}
	return nil
}

// Update modifica precio, kilometraje, observaciones o imagen.
func (uc *VehicleUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateVehicleRequest, meta audit.Meta) (*dto.VehicleResponse, error) {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	actor, _, err := authorize(ctx, uc.users, actorID, policy.UpdateVehicle, policy.Target{})
	if err != nil {
		return nil, err
	}
	if in.Empty() {
		return nil, domain.ErrNothingToUpdate
	}
	if in.Price != nil && !in.Price.IsPositive() {
		return nil, domain.Invalid("precio debe ser mayor a 0")
	}
	if in.Mileage != nil && *in.Mileage < 0 {
		return nil, domain.Invalid("kilometraje no puede ser negativo")
	}

	v, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil || v.Deleted {
		return nil, domain.ErrNotFound
	}
	before := toVehicleResponse(v)

	if in.Price != nil {
		v.Price = *in.Price
	}
	if in.Mileage != nil {
		v.Mileage = *in.Mileage
	}
	if in.Notes != nil {
		v.Notes = *in.Notes
	}
	if in.Image != nil {
		v.Image = *in.Image
	}
	v.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	out := toVehicleResponse(v)
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "ACTUALIZACION_VEHICULO", Table: vehiclesTable, RecordID: id,
		Before: before, After: out, Meta: meta,
	})
	return out, nil
}

// Delete baja lógica del vehículo.
func (uc *VehicleUseCase) Delete(ctx context.Context, actorID, id string, meta audit.Meta) error {
	ctx, cancel := deadline.For(ctx, uc.timeout)
	defer cancel()

	actor, _, err := authorize(ctx, uc.users, actorID, policy.DeleteVehicle, policy.Target{})
	if err != nil {
		return err
	}
	v, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if v == nil || v.Deleted {
		return domain.ErrNotFound
	}
	if err := uc.repo.SoftDelete(ctx, id, actor.ID, uc.now()); err != nil {
		return err
	}
	uc.recorder.RecordAudit(ctx, audit.AuditInput{
		ActorID: actor.ID, Action: "ELIMINACION_VEHICULO", Table: vehiclesTable, RecordID: id,
		Before: toVehicleResponse(v), After: map[string]bool{"eliminado": true}, Meta: meta,
	})
	return nil
}

func toVehicleResponse(v *entity.Vehicle) *dto.VehicleResponse {
	return &dto.VehicleResponse{
		ID:        v.ID,
		Type:      v.Type,
		Brand:     v.Brand,
		Model:     v.Model,
		Version:   v.Version,
		Year:      v.Year,
		Condition: v.Condition,
		Price:     v.Price,
		Plate:     v.Plate,
		Mileage:   v.Mileage,
		Notes:     v.Notes,
		Image:     v.Image,
		State:     v.State,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}
