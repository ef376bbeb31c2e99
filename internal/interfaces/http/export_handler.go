package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/concesionaria-api/internal/application/export"
)

// ExportHandler descarga completa de los datos (premium).
type ExportHandler struct {
	svc *export.Service
}

func NewExportHandler(svc *export.Service) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// JSON godoc
// @Summary      Exportar datos en JSON
// @Tags         exportacion
// @Security     Bearer
// @Produce      json
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/exportar-datos [get]
func (h *ExportHandler) JSON(c *fiber.Ctx) error {
	f, err := h.svc.ExportJSON(c.UserContext(), GetUserID(c), requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, f)
}

// Excel godoc
// @Summary      Exportar datos en Excel
// @Tags         exportacion
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/exportar-excel [get]
func (h *ExportHandler) Excel(c *fiber.Ctx) error {
	f, err := h.svc.ExportExcel(c.UserContext(), GetUserID(c), requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, f)
}

func sendFile(c *fiber.Ctx, f *export.File) error {
	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, f.Name))
	return c.Send(f.Data)
}
