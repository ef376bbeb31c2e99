package minute

import (
	"context"

	"github.com/jhoicas/concesionaria-api/internal/application/deadline"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
)

// ListMinutes minutas no eliminadas, más recientes primero.
func (s *Service) ListMinutes(ctx context.Context, actorID string) ([]dto.MinuteResponse, error) {
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()
	if _, _, err := policy.Load(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	list, err := s.minutes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MinuteResponse, 0, len(list))
	for _, v := range list {
		out = append(out, *toViewResponse(v))
	}
	return out, nil
}

// GetMinute minuta con datos de vehículo, cliente y vendedor.
func (s *Service) GetMinute(ctx context.Context, actorID, id string) (*dto.MinuteResponse, error) {
	v, err := s.view(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	return toViewResponse(v), nil
}

// MinutePDF documento imprimible de la minuta.
func (s *Service) MinutePDF(ctx context.Context, actorID, id string) ([]byte, error) {
	v, err := s.view(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderMinute(ctx, v)
}

func (s *Service) view(ctx context.Context, actorID, id string) (*entity.MinuteView, error) {
	ctx, cancel := deadline.For(ctx, s.timeout)
	defer cancel()
	if _, _, err := policy.Load(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	v, err := s.minutes.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func toResponse(m *entity.Minute) *dto.MinuteResponse {
	return &dto.MinuteResponse{
		ID:            m.ID,
		VehicleID:     m.VehicleID,
		ClientID:      m.ClientID,
		VendorID:      m.VendorID,
		OriginalPrice: m.OriginalPrice,
		FinalPrice:    m.FinalPrice,
		State:         m.State,
		Notes:         m.Notes,
		MinuteTerms:   m.Terms,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toViewResponse(v *entity.MinuteView) *dto.MinuteResponse {
	r := toResponse(&v.Minute)
	r.VehicleLabel = v.VehicleLabel
	r.VehiclePlate = v.VehiclePlate
	r.ClientName = v.ClientName
	r.ClientDNI = v.ClientDNI
	r.VendorName = v.VendorName
	return r
}
