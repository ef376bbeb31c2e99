package policy

import (
	"context"

	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

// Load relee al actor desde el store. El rol del token nunca se usa para autorizar.
func Load(ctx context.Context, users repository.UserRepository, id string) (Actor, *entity.User, error) {
	if id == "" {
		_, err := Resolve(nil)
		return Actor{}, nil, err
	}
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return Actor{}, nil, err
	}
	a, err := Resolve(u)
	if err != nil {
		return Actor{}, nil, err
	}
	return a, u, nil
}
