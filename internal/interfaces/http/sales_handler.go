package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/taller-pro/internal/application/dto"
	"github.com/tu-usuario/taller-pro/internal/domain"
	"github.com/tu-usuario/taller-pro/internal/infrastructure/pdf"
	"github.com/tu-usuario/taller-pro/internal/store/sales"
)

// SalesHandler maneja las peticiones HTTP de ventas (protegido).
type SalesHandler struct {
	ledger   *sales.Ledger
	receipts *pdf.ReceiptGenerator
}

// NewSalesHandler construye el handler.
func NewSalesHandler(ledger *sales.Ledger, receipts *pdf.ReceiptGenerator) *SalesHandler {
	return &SalesHandler{ledger: ledger, receipts: receipts}
}

// List re-trae las ventas del backend y devuelve el snapshot con el total derivado.
func (h *SalesHandler) List(c *fiber.Ctx) error {
	if err := h.ledger.FetchAll(c.Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"sales":       h.ledger.Sales(),
		"total_sales": h.ledger.TotalSales(),
	})
}

// Create registra una venta (pre-check de stock incluido).
func (h *SalesHandler) Create(c *fiber.Ctx) error {
	var in sales.SaleInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sale, err := h.ledger.Create(c.Context(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}

// Edit actualiza una venta con el acreditado de cantidades originales.
func (h *SalesHandler) Edit(c *fiber.Ctx) error {
	var in sales.SaleInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sale, err := h.ledger.Edit(c.Context(), c.Params("id"), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(sale)
}

// Remove elimina una venta y restaura el stock best-effort.
func (h *SalesHandler) Remove(c *fiber.Ctx) error {
	if err := h.ledger.Remove(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "venta eliminada"})
}

// Receipt genera el comprobante PDF de una venta del estado local.
func (h *SalesHandler) Receipt(c *fiber.Ctx) error {
	sale, ok := h.ledger.SaleByID(c.Params("id"))
	if !ok {
		return errorResponse(c, domain.ErrNotFound)
	}
	data, err := h.receipts.Generate(sale)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="venta-`+sale.ID+`.pdf"`)
	return c.Send(data)
}
