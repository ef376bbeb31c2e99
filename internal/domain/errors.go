package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrUserDisabled       = errors.New("usuario deshabilitado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrNothingToUpdate    = errors.New("nada para actualizar")
	ErrStoreUnavailable   = errors.New("almacenamiento no disponible")
)

// ConflictReason clasifica un ConflictError.
type ConflictReason string

const (
	ConflictNotAvailable    ConflictReason = "vehiculo_no_disponible"
	ConflictDuplicateMinute ConflictReason = "minuta_duplicada"
	ConflictDuplicateKey    ConflictReason = "clave_duplicada"
	ConflictClosedMinute    ConflictReason = "minuta_finalizada"
)

// ConflictError rechazo por estado actual. errors.Is(err, ErrConflict) es verdadero.
type ConflictError struct {
	Reason       ConflictReason
	CurrentState string
	MinuteID     string // minuta activa que bloquea el vehículo, si existe
	Field        string // solo para ConflictDuplicateKey
}

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ConflictNotAvailable:
		msg := "Este vehículo no está disponible para venta. Estado actual: " + e.CurrentState
		if e.MinuteID != "" {
			msg += ". Minuta ID: " + e.MinuteID
		}
		return msg
	case ConflictDuplicateMinute:
		return "Ya existe una minuta activa para este vehículo. Minuta ID: " + e.MinuteID
	case ConflictDuplicateKey:
		return fmt.Sprintf("ya existe un registro con el mismo %s", e.Field)
	case ConflictClosedMinute:
		return "La minuta ya está finalizada. Estado actual: " + e.CurrentState
	default:
		return ErrConflict.Error()
	}
}

// Is permite errors.Is(err, domain.ErrConflict).
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Invalid envuelve ErrInvalidInput con el detalle del campo.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
