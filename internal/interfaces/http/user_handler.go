package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/application/usecase"
)

// UserHandler gestión de usuarios reservada al premium.
type UserHandler struct {
	uc *usecase.UserUseCase
}

func NewUserHandler(uc *usecase.UserUseCase) *UserHandler {
	return &UserHandler{uc: uc}
}

// List godoc
// @Summary      Usuarios con última actividad
// @Tags         usuarios
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.UserActivityResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/usuarios/todos [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListWithActivity(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Suspend godoc
// @Summary      Suspender usuario
// @Tags         usuarios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del usuario"
// @Param        body  body  dto.SuspendRequest  true  "motivo, mensaje, duracion"
// @Success      200   {object}  dto.MessageResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/usuarios/{id}/suspender [post]
func (h *UserHandler) Suspend(c *fiber.Ctx) error {
	var in dto.SuspendRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	if err := h.uc.Suspend(c.UserContext(), GetUserID(c), c.Params("id"), in, requestMeta(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Usuario suspendido"})
}

// Reactivate godoc
// @Summary      Reactivar usuario
// @Tags         usuarios
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/usuarios/{id}/reactivar [post]
func (h *UserHandler) Reactivate(c *fiber.Ctx) error {
	if err := h.uc.Reactivate(c.UserContext(), GetUserID(c), c.Params("id"), requestMeta(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Usuario reactivado"})
}

// Delete godoc
// @Summary      Eliminar (deshabilitar) usuario
// @Tags         usuarios
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/usuarios/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetUserID(c), c.Params("id"), requestMeta(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Usuario eliminado"})
}
