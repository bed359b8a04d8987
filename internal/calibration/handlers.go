package calibration

import (
	"backend-breathstats/internal/auth"
	"backend-breathstats/internal/shared/apperr"
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
		overviews, err := svc.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		return envelope.OK(c, overviews)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFrom(c)
		if !ok {
			return auth.ErrInvalidToken
		}
		var req SaveRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.InvalidRequest(envelope.MsgInvalidRequest)
		}
		overview, err := svc.Save(c.UserContext(), req, identity.GameToken)
		if err != nil {
			return err
		}
		return envelope.Created(c, overview)
	})
}
