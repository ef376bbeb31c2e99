package http

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/domain"
)

// Cabeceras opcionales con el fingerprint del dispositivo del cliente.
const (
	HeaderDeviceID   = "X-Dispositivo-Id"
	HeaderDeviceInfo = "X-Dispositivo-Info"
	HeaderDeviceTime = "X-Fecha-Dispositivo"
)

// respondError traduce errores de dominio a HTTP. Lo no clasificado es 500.
func respondError(c *fiber.Ctx, err error) error {
	var ce *domain.ConflictError
	switch {
	case errors.As(err, &ce):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: strings.ToUpper(string(ce.Reason)), Message: ce.Error(), MinuteID: ce.MinuteID,
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNothingToUpdate):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "NOTHING_TO_UPDATE", Message: "No hay campos para actualizar"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrUserDisabled):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "USER_DISABLED", Message: "cuenta deshabilitada o suspendida"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "USER_NOT_FOUND", Message: "usuario no encontrado"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: "el email ya está registrado"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "servicio no disponible, intente más tarde"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// requestMeta origen de la petición para auditoría. La IP respeta HTTP_PROXY_HEADER.
func requestMeta(c *fiber.Ctx) audit.Meta {
	m := audit.Meta{IP: c.IP(), DeviceID: c.Get(HeaderDeviceID)}
	if raw := c.Get(HeaderDeviceInfo); raw != "" && json.Valid([]byte(raw)) {
		m.DeviceInfo = json.RawMessage(raw)
	}
	if raw := c.Get(HeaderDeviceTime); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			m.DeviceTime = &t
		}
	}
	return m
}
