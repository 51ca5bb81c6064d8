package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/taller-pro/internal/application/dto"
)

// SessionStore guard de sesión para las rutas protegidas.
type SessionStore interface {
	Authenticated() bool
}

// SessionRequired rechaza con 401 cuando no hay sesión utilizable en el
// almacén (token ausente o JWT vencido). Las operaciones mutadoras de los
// stores repiten este guard por su cuenta; aquí se corta antes el camino.
func SessionRequired(sess SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sess.Authenticated() {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "AUTH_REQUIRED",
				Message: "sesión requerida",
			})
		}
		return c.Next()
	}
}
