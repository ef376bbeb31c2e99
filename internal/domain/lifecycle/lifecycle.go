// Package lifecycle reglas de estado de vehículos y minutas.
//
//	vehículo: disponible → reservado → {vendido | disponible}
//	minuta:   reservada ⇄ iniciada → {cerrada | cancelada}
package lifecycle

import (
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// IsActiveMinute una minuta activa bloquea su vehículo.
func IsActiveMinute(state string) bool {
	return state == entity.MinuteReserved || state == entity.MinuteStarted
}

// ValidMinuteState estados aceptados para una minuta.
func ValidMinuteState(state string) bool {
	switch state {
	case entity.MinuteReserved, entity.MinuteStarted, entity.MinuteClosed, entity.MinuteCancelled:
		return true
	}
	return false
}

// Sellable verifica que el vehículo admita una nueva minuta. active es la minuta activa
// que lo referencia (nil si no hay). Debe evaluarse con ambas lecturas hechas dentro de la
// misma transacción que inserta la minuta.
func Sellable(v *entity.Vehicle, active *entity.Minute) error {
	if v == nil || v.Deleted {
		return domain.ErrNotFound
	}
	if v.State != entity.VehicleAvailable {
		ce := &domain.ConflictError{Reason: domain.ConflictNotAvailable, CurrentState: v.State}
		if active != nil {
			ce.MinuteID = active.ID
		}
		return ce
	}
	if active != nil {
		return &domain.ConflictError{Reason: domain.ConflictDuplicateMinute, CurrentState: v.State, MinuteID: active.ID}
	}
	return nil
}

// MinuteTransition valida el cambio de estado de una minuta y devuelve el estado que debe
// tomar su vehículo. changed es falso si from == to.
func MinuteTransition(from, to string) (vehicleState string, changed bool, err error) {
	if !ValidMinuteState(to) {
		return "", false, domain.Invalid("estado de minuta desconocido: %s", to)
	}
	if from == to {
		return "", false, nil
	}
	if !IsActiveMinute(from) {
		return "", false, &domain.ConflictError{Reason: domain.ConflictClosedMinute, CurrentState: from}
	}
	switch to {
	case entity.MinuteClosed:
		return entity.VehicleSold, true, nil
	case entity.MinuteCancelled:
		return entity.VehicleAvailable, true, nil
	default:
		return entity.VehicleReserved, true, nil
	}
}

// Release valida que la minuta pueda cancelarse liberando su vehículo.
func Release(m *entity.Minute) error {
	if m == nil || m.Deleted {
		return domain.ErrNotFound
	}
	if !IsActiveMinute(m.State) {
		return &domain.ConflictError{Reason: domain.ConflictClosedMinute, CurrentState: m.State, MinuteID: m.ID}
	}
	return nil
}
