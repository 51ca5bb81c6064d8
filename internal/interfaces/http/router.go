package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/taller-pro/internal/infrastructure/pdf"
	"github.com/tu-usuario/taller-pro/internal/notify"
	"github.com/tu-usuario/taller-pro/internal/session"
	"github.com/tu-usuario/taller-pro/internal/store/inventory"
	"github.com/tu-usuario/taller-pro/internal/store/sales"
	"github.com/tu-usuario/taller-pro/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Inventory *inventory.Store
	Sales     *sales.Ledger
	Session   *session.Store
	Bridge    *notify.Bridge
	Receipts  *pdf.ReceiptGenerator
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Sesión (público: instala el token emitido por el auth externo)
	sessionHandler := NewSessionHandler(deps.Session)
	api.Post("/session", sessionHandler.Set)
	api.Delete("/session", sessionHandler.Clear)

	// Notificaciones y prompt (público: la UI los necesita también sin sesión)
	notifyHandler := NewNotifyHandler(deps.Bridge)
	api.Get("/notifications", notifyHandler.ListToasts)
	api.Delete("/notifications/:id", notifyHandler.DismissToast)
	api.Post("/prompt", notifyHandler.OpenPrompt)
	api.Get("/prompt", notifyHandler.PromptState)
	api.Post("/prompt/answer", notifyHandler.AnswerPrompt)

	// Feed websocket de toasts
	app.Use("/ws", WSUpgrade)
	app.Get("/ws/notifications", ToastFeed(deps.Bridge, deps.Log))

	// Rutas protegidas (requieren sesión instalada)
	protected := api.Group("/", SessionRequired(deps.Session))

	// Inventario (protegido)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Inventory)
	invGroup.Get("/parts", inventoryHandler.ListParts)
	invGroup.Post("/parts", inventoryHandler.CreatePart)
	invGroup.Patch("/parts/:id", inventoryHandler.UpdatePart)
	invGroup.Get("/parts/:id/history", inventoryHandler.PartHistory)
	invGroup.Get("/categories", inventoryHandler.ListCategories)
	invGroup.Get("/alerts", inventoryHandler.ListAlerts)
	invGroup.Post("/reorder", inventoryHandler.Reorder)
	invGroup.Post("/assign-to-job", inventoryHandler.AssignToJob)
	invGroup.Get("/transactions", inventoryHandler.ListMovements)
	invGroup.Get("/export", inventoryHandler.Export)
	invGroup.Post("/sync", inventoryHandler.Sync)
	protected.Get("/suppliers", inventoryHandler.ListSuppliers)

	// Ventas (protegido)
	salesGroup := protected.Group("/sales")
	salesHandler := NewSalesHandler(deps.Sales, deps.Receipts)
	salesGroup.Get("/", salesHandler.List)
	salesGroup.Post("/", salesHandler.Create)
	salesGroup.Put("/:id", salesHandler.Edit)
	salesGroup.Delete("/:id", salesHandler.Remove)
	salesGroup.Get("/:id/receipt.pdf", salesHandler.Receipt)
}
