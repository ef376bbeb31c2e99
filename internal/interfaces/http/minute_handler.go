package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/application/minute"
)

// MinuteHandler minutas de venta.
type MinuteHandler struct {
	svc *minute.Service
}

func NewMinuteHandler(svc *minute.Service) *MinuteHandler {
	return &MinuteHandler{svc: svc}
}

// List godoc
// @Summary      Listar minutas
// @Description  Los vendedores ven solo las propias.
// @Tags         minutas
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.MinuteResponse
// @Router       /api/minutas [get]
func (h *MinuteHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.ListMinutes(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener minuta
// @Tags         minutas
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la minuta"
// @Success      200  {object}  dto.MinuteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/minutas/{id} [get]
func (h *MinuteHandler) Get(c *fiber.Ctx) error {
	out, err := h.svc.GetMinute(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear minuta (reserva el vehículo)
// @Tags         minutas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMinuteRequest  true  "vehiculo_id, cliente_id, precios y condiciones"
// @Success      201   {object}  dto.MinuteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "vehículo no disponible; incluye minuta_id"
// @Router       /api/minutas [post]
func (h *MinuteHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMinuteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.CreateMinute(c.UserContext(), GetUserID(c), in, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar minuta
// @Description  Solo administradores y premium. Cerrar marca el vehículo vendido; cancelar lo libera.
// @Tags         minutas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la minuta"
// @Param        body  body  dto.EditMinuteRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.MinuteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/minutas/{id} [put]
func (h *MinuteHandler) Update(c *fiber.Ctx) error {
	var in dto.EditMinuteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.EditMinute(c.UserContext(), GetUserID(c), c.Params("id"), in, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar minuta (baja lógica)
// @Tags         minutas
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la minuta"
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/minutas/{id} [delete]
func (h *MinuteHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteMinute(c.UserContext(), c.Params("id"), GetUserID(c), requestMeta(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Minuta eliminada"})
}

// Release godoc
// @Summary      Liberar vehículo
// @Description  Cancela la minuta activa y deja el vehículo disponible. Solo administradores.
// @Tags         minutas
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la minuta"
// @Success      200  {object}  dto.MessageResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/minutas/{id}/liberar-vehiculo [post]
func (h *MinuteHandler) Release(c *fiber.Ctx) error {
	if err := h.svc.ReleaseVehicle(c.UserContext(), c.Params("id"), GetUserID(c), GetRole(c), requestMeta(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Vehículo liberado"})
}

// PDF godoc
// @Summary      Minuta en PDF
// @Tags         minutas
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la minuta"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/minutas/{id}/pdf [get]
func (h *MinuteHandler) PDF(c *fiber.Ctx) error {
	id := c.Params("id")
	data, err := h.svc.MinutePDF(c.UserContext(), GetUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="minuta_%s.pdf"`, id))
	return c.Send(data)
}
