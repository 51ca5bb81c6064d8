package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/tu-usuario/taller-pro/internal/notify"
	"github.com/tu-usuario/taller-pro/pkg/logger"
)

// WSUpgrade exige que la petición sea un upgrade websocket.
func WSUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ToastFeed transmite cada toast nuevo por el websocket en cuanto se emite,
// para que la UI no tenga que hacer polling de /notifications.
func ToastFeed(bridge *notify.Bridge, log *logger.Logger) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ch := bridge.Subscribe()
		defer bridge.Unsubscribe(ch)

		// Goroutine de lectura: detecta el cierre del lado del cliente.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					log.Debug().Err(err).Msg("cliente websocket desconectado")
					return
				}
			case <-closed:
				return
			}
		}
	})
}
