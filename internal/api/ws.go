package api

import (
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/kdudkov/geogate/internal/wshandler"
)

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return fiber.ErrUpgradeRequired
}

// getEventsHandler streams ledger events to a websocket subscriber.
func getEventsHandler(api *StoreAPI) fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		name := uuid.NewString()

		h := wshandler.NewHandler(api.logger, name, ws)

		api.logger.Debug("events listener connected", slog.String("remote", ws.RemoteAddr().String()))
		api.events.Subscribe(name, h.SendEvent)
		h.Listen()
		api.events.Unsubscribe(name)
		api.logger.Debug("events listener disconnected")
	})
}
