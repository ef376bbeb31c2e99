package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConflictError_EsErrConflict(t *testing.T) {
	var err error = &ConflictError{Reason: ConflictDuplicateMinute, MinuteID: "m-1"}
	wrapped := fmt.Errorf("crear minuta: %w", err)

	assert.ErrorIs(t, wrapped, ErrConflict)

	var ce *ConflictError
	assert.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, "m-1", ce.MinuteID)
}

func TestConflictError_Mensajes(t *testing.T) {
	assert.Equal(t,
		"Este vehículo no está disponible para venta. Estado actual: reservado",
		(&ConflictError{Reason: ConflictNotAvailable, CurrentState: "reservado"}).Error())
	assert.Contains(t,
		(&ConflictError{Reason: ConflictNotAvailable, CurrentState: "reservado", MinuteID: "m-7"}).Error(),
		"Minuta ID: m-7")
	assert.Equal(t,
		"Ya existe una minuta activa para este vehículo. Minuta ID: m-2",
		(&ConflictError{Reason: ConflictDuplicateMinute, MinuteID: "m-2"}).Error())
	assert.Contains(t, (&ConflictError{Reason: ConflictDuplicateKey, Field: "dni"}).Error(), "dni")
}

func TestInvalid_EnvuelveErrInvalidInput(t *testing.T) {
	err := Invalid("precio_final debe ser mayor a %d", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "precio_final")
}
