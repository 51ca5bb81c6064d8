package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/taller-pro/internal/application/dto"
	"github.com/tu-usuario/taller-pro/internal/store/inventory"
)

// InventoryHandler maneja las peticiones HTTP de inventario (protegido).
// Los handlers son pass-through: toda la semántica vive en el store.
type InventoryHandler struct {
	store *inventory.Store
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(store *inventory.Store) *InventoryHandler {
	return &InventoryHandler{store: store}
}

// ListParts devuelve el snapshot de piezas; con ?search= re-consulta el
// backend (query vacía trae el conjunto completo; la búsqueda nunca falla
// hacia el caller, devuelve lista vacía).
func (h *InventoryHandler) ListParts(c *fiber.Ctx) error {
	if _, hasSearch := c.Queries()["search"]; hasSearch {
		return c.JSON(h.store.Search(c.Context(), c.Query("search")))
	}
	return c.JSON(h.store.Parts())
}

// Sync dispara el fetch concurrente de piezas, categorías y proveedores.
func (h *InventoryHandler) Sync(c *fiber.Ctx) error {
	h.store.FetchAll(c.Context())
	return c.JSON(fiber.Map{
		"parts":      len(h.store.Parts()),
		"categories": len(h.store.Categories()),
		"suppliers":  len(h.store.Suppliers()),
	})
}

// CreatePart crea una pieza y re-sincroniza la lista.
func (h *InventoryHandler) CreatePart(c *fiber.Ctx) error {
	var payload map[string]any
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	data, err := h.store.Create(c.Context(), payload)
	if err != nil {
		return errorResponse(c, err)
	}
	if data == nil {
		return c.SendStatus(fiber.StatusCreated)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusCreated).Send(data)
}

// UpdatePart actualización parcial (PATCH) de una pieza.
func (h *InventoryHandler) UpdatePart(c *fiber.Ctx) error {
	var payload map[string]any
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	data, err := h.store.Update(c.Context(), c.Params("id"), payload)
	if err != nil {
		return errorResponse(c, err)
	}
	if data == nil {
		return c.SendStatus(fiber.StatusOK)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// ListCategories categorías con conteos derivados al día.
func (h *InventoryHandler) ListCategories(c *fiber.Ctx) error {
	return c.JSON(h.store.Categories())
}

// ListSuppliers proveedores (referencia de solo lectura).
func (h *InventoryHandler) ListSuppliers(c *fiber.Ctx) error {
	return c.JSON(h.store.Suppliers())
}

// ListAlerts alertas de stock bajo vigentes (vista derivada).
func (h *InventoryHandler) ListAlerts(c *fiber.Ctx) error {
	return c.JSON(h.store.Alerts())
}

// Reorder reposición manual de stock.
func (h *InventoryHandler) Reorder(c *fiber.Ctx) error {
	var in inventory.ReorderInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.store.Reorder(c.Context(), in); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "solicitud de reposición enviada"})
}

// AssignToJob asigna piezas a una orden de trabajo (salida de stock).
func (h *InventoryHandler) AssignToJob(c *fiber.Ctx) error {
	var in inventory.AssignInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.store.AssignToJob(c.Context(), in); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "pieza asignada"})
}

// PartHistory movimientos de una pieza (modal de historial).
func (h *InventoryHandler) PartHistory(c *fiber.Ctx) error {
	movs, err := h.store.History(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(movs)
}

// ListMovements log reciente de transacciones de inventario.
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	movs, err := h.store.FetchMovements(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(movs)
}

// Export descarga el CSV de piezas como attachment.
func (h *InventoryHandler) Export(c *fiber.Ctx) error {
	filename, data, err := h.store.Export(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
