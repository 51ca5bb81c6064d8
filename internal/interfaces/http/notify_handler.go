package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/taller-pro/internal/application/dto"
	"github.com/tu-usuario/taller-pro/internal/notify"
)

// NotifyHandler expone el puente de toasts y el prompt modal a la UI.
type NotifyHandler struct {
	bridge *notify.Bridge
}

// NewNotifyHandler construye el handler.
func NewNotifyHandler(bridge *notify.Bridge) *NotifyHandler {
	return &NotifyHandler{bridge: bridge}
}

// ListToasts toasts vigentes, en orden de inserción.
func (h *NotifyHandler) ListToasts(c *fiber.Ctx) error {
	return c.JSON(h.bridge.Active())
}

// DismissToast cierre manual de un toast.
func (h *NotifyHandler) DismissToast(c *fiber.Ctx) error {
	h.bridge.Dismiss(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

// OpenPrompt abre el prompt y BLOQUEA hasta que llegue la respuesta por
// AnswerPrompt (el equivalente HTTP de la promesa del modal). Si otro prompt
// se abre antes de responder, esta petición queda pendiente para siempre
// salvo que el caller corte la conexión; limitación heredada y documentada.
func (h *NotifyHandler) OpenPrompt(c *fiber.Ctx) error {
	var in dto.PromptOpenRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ch := h.bridge.Prompt(notify.PromptRequest{
		Title:        in.Title,
		Placeholder:  in.Placeholder,
		DefaultValue: in.DefaultValue,
	})
	select {
	case res := <-ch:
		return c.JSON(dto.PromptAnswerResponse{Value: res.Value, Cancelled: !res.OK})
	case <-c.Context().Done():
		return nil
	}
}

// PromptState snapshot del prompt para renderizar el modal.
func (h *NotifyHandler) PromptState(c *fiber.Ctx) error {
	return c.JSON(h.bridge.GetPromptState())
}

// AnswerPrompt resuelve (o cancela) el prompt pendiente.
func (h *NotifyHandler) AnswerPrompt(c *fiber.Ctx) error {
	var in dto.PromptAnswerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Cancel {
		h.bridge.Cancel()
	} else {
		h.bridge.Resolve(in.Value)
	}
	return c.JSON(fiber.Map{"message": "prompt respondido"})
}
