package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/taller-pro/internal/application/dto"
	"github.com/tu-usuario/taller-pro/internal/session"
)

// SessionHandler instala y borra el token Bearer de la sesión persistida.
// La emisión del token es asunto del servicio de autenticación externo.
type SessionHandler struct {
	store *session.Store
}

// NewSessionHandler construye el handler.
func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// Set guarda el token de sesión.
func (h *SessionHandler) Set(c *fiber.Ctx) error {
	var in dto.SessionRequest
	if err := c.BodyParser(&in); err != nil || in.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "token requerido"})
	}
	if err := h.store.Set(in.Token); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "sesión guardada"})
}

// Clear borra la sesión (logout).
func (h *SessionHandler) Clear(c *fiber.Ctx) error {
	if err := h.store.Clear(); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "sesión cerrada"})
}
