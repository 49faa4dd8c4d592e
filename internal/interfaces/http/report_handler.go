package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-web/internal/application/reports"
	"github.com/jhoicas/inventario-web/internal/domain"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler descargas de reportes.
type ReportHandler struct {
	svc *reports.Service
}

// NewReportHandler construye el handler.
func NewReportHandler(svc *reports.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// StockPDF GET /reports/stock.pdf
func (h *ReportHandler) StockPDF(c *fiber.Ctx) error {
	out, filename, err := h.svc.StockReport(c.UserContext())
	if err != nil {
		return backendError(err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(out)
}

// MovementsXLSX GET /reports/movements.xlsx
func (h *ReportHandler) MovementsXLSX(c *fiber.Ctx) error {
	out, filename, err := h.svc.MovementsWorkbook(c.UserContext())
	if err != nil {
		return backendError(err)
	}
	c.Set(fiber.HeaderContentType, mimeXLSX)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(out)
}

// backendError traduce un fallo del backend a *fiber.Error con el mensaje normalizado.
// Un error que no viene del cliente API (p. ej. al generar el archivo) sale como 500.
func backendError(err error) error {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Kind == domain.KindNotFound {
		return fiber.NewError(fiber.StatusNotFound, apiErr.Message)
	}
	return fiber.NewError(fiber.StatusBadGateway, apiErr.Message)
}
