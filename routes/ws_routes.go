package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/njeri2090/studio_booking/middleware"
	ws "github.com/njeri2090/studio_booking/websocket"
)

// WebsocketRoutes exposes the admin dashboard event stream. The connection is
// upgraded only for authenticated admins; the read loop exists to detect
// client disconnects since the server never expects inbound messages.
func WebsocketRoutes(app *fiber.App, jwtSecret string, hub *ws.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/admin", middleware.Protected(jwtSecret), middleware.AdminRequired(), websocket.New(func(conn *websocket.Conn) {
		hub.Register(conn)
		defer hub.Unregister(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}
