package usecase

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
	"github.com/jhoicas/concesionaria-api/internal/domain/policy"
	"github.com/jhoicas/concesionaria-api/internal/domain/repository"
)

// authorize relee al actor y evalúa la operación contra la política.
func authorize(ctx context.Context, users repository.UserRepository, actorID string, op policy.Operation, target policy.Target) (policy.Actor, *entity.User, error) {
	actor, u, err := policy.Load(ctx, users, actorID)
	if err != nil {
		return policy.Actor{}, nil, err
	}
	if !policy.CanPerform(actor, op, target) {
		return policy.Actor{}, nil, domain.ErrForbidden
	}
	return actor, u, nil
}

// squash colapsa espacios internos y recorta los extremos.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// personName "ana  PÉREZ" → "Ana Pérez". cases.Caser no es seguro para uso concurrente:
// se crea uno por llamada.
func personName(s string) string {
	return cases.Title(language.Spanish).String(squash(s))
}

// brandName capitaliza sin bajar siglas ("toyota" → "Toyota", "BMW" se mantiene).
func brandName(s string) string {
	return cases.Title(language.Spanish, cases.NoLower).String(squash(s))
}
