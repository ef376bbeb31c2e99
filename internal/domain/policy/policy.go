// Package policy centraliza las reglas de autorización por rol y banderas del actor.
package policy

import (
	"github.com/jhoicas/concesionaria-api/internal/domain"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// Role variante etiquetada del actor.
type Role string

const (
	RoleVendedor      Role = entity.RoleVendedor
	RoleAdministrador Role = entity.RoleAdministrador
	RolePremium       Role = "premium"
)

// Actor identidad explícita de quien ejecuta la operación.
type Actor struct {
	ID         string
	Role       Role
	SuperAdmin bool
}

// IsPremium indica si el actor es el observador premium.
func (a Actor) IsPremium() bool { return a.Role == RolePremium }

// IsAdmin indica rol administrador (el premium no cuenta como administrador).
func (a Actor) IsAdmin() bool { return a.Role == RoleAdministrador }

// RoleOf deriva el rol del actor a partir de la fila de usuario.
func RoleOf(u *entity.User) Role {
	if u.Premium {
		return RolePremium
	}
	if u.Role == entity.RoleAdministrador {
		return RoleAdministrador
	}
	return RoleVendedor
}

// Resolve construye el Actor desde el usuario leído del store.
// Usuario inexistente o deshabilitado no puede actuar.
func Resolve(u *entity.User) (Actor, error) {
	if u == nil {
		return Actor{}, domain.ErrForbidden
	}
	if !u.Enabled {
		return Actor{}, domain.ErrUserDisabled
	}
	return Actor{ID: u.ID, Role: RoleOf(u), SuperAdmin: u.SuperAdmin}, nil
}

// Operation acción sujeta a autorización.
type Operation int

const (
	SuspendUser Operation = iota + 1
	ReactivateUser
	DeleteUser
	EditMinute
	ReleaseVehicle
	DeleteMinute
	DeleteClient
	UpdateClient
	UpdateVehicle
	DeleteVehicle
	CreateAdminAccount
	CreateLimitedAdmin
	ReadSurveillance
	ExportData
)

// Target hechos del objeto afectado que intervienen en la decisión.
type Target struct {
	Premium     bool   // el usuario objetivo es premium
	OwnerID     string // vendedor dueño de la minuta
	LocalOrigin bool   // la petición llega desde una red de confianza
}

// CanPerform única función de decisión de autorización.
func CanPerform(actor Actor, op Operation, target Target) bool {
	switch op {
	case SuspendUser, ReactivateUser, DeleteUser:
		return actor.IsPremium() && !target.Premium
	case EditMinute:
		return actor.IsAdmin() || actor.IsPremium()
	case ReleaseVehicle:
		return actor.IsAdmin()
	case DeleteClient, UpdateClient, UpdateVehicle, DeleteVehicle:
		return elevated(actor)
	case DeleteMinute:
		return elevated(actor) || (actor.ID != "" && actor.ID == target.OwnerID)
	case CreateAdminAccount:
		return target.LocalOrigin
	case CreateLimitedAdmin, ReadSurveillance, ExportData:
		return actor.IsPremium()
	default:
		return false
	}
}

func elevated(a Actor) bool {
	return a.SuperAdmin || a.IsAdmin() || a.IsPremium()
}
