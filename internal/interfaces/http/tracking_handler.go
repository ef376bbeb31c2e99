package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/application/tracking"
)

// TrackingHandler navegación y acciones reportadas por el cliente, y su lectura (premium).
type TrackingHandler struct {
	svc *tracking.Service
}

func NewTrackingHandler(svc *tracking.Service) *TrackingHandler {
	return &TrackingHandler{svc: svc}
}

// Navigation godoc
// @Summary      Registrar navegación
// @Tags         tracking
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.NavigationRequest  true  "seccion, accion, detalles"
// @Success      202   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/tracking/navegacion [post]
func (h *TrackingHandler) Navigation(c *fiber.Ctx) error {
	var in dto.NavigationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	err := h.svc.RecordNavigation(c.UserContext(), tracking.NavigationInput{
		SessionID: GetSessionID(c), UserID: GetUserID(c),
		Section: in.Section, Action: in.Action, Details: in.Details, IP: c.IP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: "Navegación registrada"})
}

// Action godoc
// @Summary      Registrar acción
// @Tags         tracking
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ActionRequest  true  "tipo_accion, modulo, datos_accion"
// @Success      202   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/tracking/accion [post]
func (h *TrackingHandler) Action(c *fiber.Ctx) error {
	var in dto.ActionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	err := h.svc.RecordAction(c.UserContext(), tracking.ActionInput{
		UserID: GetUserID(c), SessionID: GetSessionID(c),
		Type: in.Type, Module: in.Module, Data: in.Data, IP: c.IP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: "Acción registrada"})
}

// Sessions godoc
// @Summary      Sesiones de un usuario
// @Tags         tracking
// @Security     Bearer
// @Produce      json
// @Param        usuario_id  path  string  true  "ID del usuario"
// @Success      200  {array}   dto.SessionResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/tracking/sesiones/{usuario_id} [get]
func (h *TrackingHandler) Sessions(c *fiber.Ctx) error {
	list, err := h.svc.ListSessions(c.UserContext(), GetUserID(c), c.Params("usuario_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewSessionResponses(list))
}

// NavigationLog godoc
// @Summary      Navegación de un usuario
// @Tags         tracking
// @Security     Bearer
// @Produce      json
// @Param        usuario_id  path  string  true  "ID del usuario"
// @Success      200  {array}   dto.NavigationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/tracking/navegacion/{usuario_id} [get]
func (h *TrackingHandler) NavigationLog(c *fiber.Ctx) error {
	list, err := h.svc.ListNavigation(c.UserContext(), GetUserID(c), c.Params("usuario_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewNavigationResponses(list))
}
