package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/concesionaria-api/internal/application/dto"
	"github.com/jhoicas/concesionaria-api/internal/application/usecase"
)

// SurveillanceHandler alertas, notificaciones, auditoría e historial (premium).
type SurveillanceHandler struct {
	uc *usecase.SurveillanceUseCase
}

func NewSurveillanceHandler(uc *usecase.SurveillanceUseCase) *SurveillanceHandler {
	return &SurveillanceHandler{uc: uc}
}

// Alerts godoc
// @Summary      Alertas premium
// @Tags         vigilancia
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.AlertResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/alertas-premium [get]
func (h *SurveillanceHandler) Alerts(c *fiber.Ctx) error {
	out, err := h.uc.ListAlerts(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// MarkAlertRead godoc
// @Summary      Marcar alerta como leída
// @Tags         vigilancia
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la alerta"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/alertas-premium/{id}/leida [post]
func (h *SurveillanceHandler) MarkAlertRead(c *fiber.Ctx) error {
	if err := h.uc.MarkAlertRead(c.UserContext(), GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Alerta marcada como leída"})
}

// Notifications godoc
// @Summary      Notificaciones
// @Tags         vigilancia
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.NotificationResponse
// @Router       /api/notificaciones [get]
func (h *SurveillanceHandler) Notifications(c *fiber.Ctx) error {
	out, err := h.uc.ListNotifications(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// MarkNotificationRead godoc
// @Summary      Marcar notificación como leída
// @Tags         vigilancia
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la notificación"
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/notificaciones/{id}/leida [post]
func (h *SurveillanceHandler) MarkNotificationRead(c *fiber.Ctx) error {
	if err := h.uc.MarkNotificationRead(c.UserContext(), GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Notificación marcada como leída"})
}

// Audit godoc
// @Summary      Auditoría
// @Tags         vigilancia
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.AuditResponse
// @Router       /api/auditoria [get]
func (h *SurveillanceHandler) Audit(c *fiber.Ctx) error {
	out, err := h.uc.ListAudit(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de cambios de un registro
// @Tags         vigilancia
// @Security     Bearer
// @Produce      json
// @Param        tabla       path  string  true  "Tabla afectada"
// @Param        registroId  path  string  true  "ID del registro"
// @Success      200  {array}   dto.HistoryResponse
// @Router       /api/historial/{tabla}/{registroId} [get]
func (h *SurveillanceHandler) History(c *fiber.Ctx) error {
	out, err := h.uc.History(c.UserContext(), GetUserID(c), c.Params("tabla"), c.Params("registroId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
