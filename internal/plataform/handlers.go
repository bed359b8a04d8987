package plataform

import (
	"backend-breathstats/internal/auth"
	"backend-breathstats/internal/shared/envelope"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFrom(c)
		if !ok {
			return auth.ErrInvalidToken
		}
		q, err := ParseQuery(c.Queries(), identity.GameToken)
		if err != nil {
			return err
		}
		sessions, err := svc.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		return envelope.OK(c, sessions)
	})
}
