package auth

import (
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderGameToken = "game-token"
	localIdentity   = "identity"
)

// RequireHeader rejects requests without a game-token header and does not
// touch the store.
func RequireHeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(HeaderGameToken) == "" {
			return ErrMissingToken
		}
		return c.Next()
	}
}

// GameTokenMiddleware authorizes the game-token header and stores the
// resolved Identity in locals.
func GameTokenMiddleware(gate *Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := gate.Authorize(c.UserContext(), c.Get(HeaderGameToken))
		if err != nil {
			return err
		}
		c.Locals(localIdentity, identity)
		return c.Next()
	}
}

// IdentityFrom returns the Identity stored by GameTokenMiddleware.
func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(localIdentity).(Identity)
	return identity, ok
}
