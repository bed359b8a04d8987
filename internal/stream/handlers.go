package stream

import (
	"errors"

	"backend-breathstats/internal/auth"
	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes serves the live feed of a pacient owned by the caller's
// account. Ownership is checked before the upgrade.
func RegisterRoutes(r fiber.Router, hub *Hub, pacients store.PacientStore, authMiddleware fiber.Handler) {
	r.Get("/ws/:pacientId", authMiddleware, func(c *fiber.Ctx) error {
		pacientID := c.Params("pacientId")
		if !store.IsObjectID(pacientID) {
			return apperr.InvalidRequest(envelope.MsgInvalidRequest)
		}
		identity, ok := auth.IdentityFrom(c)
		if !ok {
			return auth.ErrMissingToken
		}
		if _, err := pacients.FindPacient(c.UserContext(), pacientID, identity.GameToken); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound(envelope.MsgNotFound)
			}
			return apperr.Upstream("pacient lookup failed", err)
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("pacientId"))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
