package pacient

import (
	"backend-breathstats/internal/auth"
	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/store"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts GET /:pacientId. A missing header is rejected first,
// then the id shape, and only then is the token resolved against the store.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:pacientId", auth.RequireHeader(), validPacientID, authMiddleware, func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFrom(c)
		if !ok {
			return auth.ErrInvalidToken
		}
		p, err := svc.GetPacient(c.UserContext(), c.Params("pacientId"), identity.GameToken)
		if err != nil {
			return err
		}
		return envelope.OK(c, p)
	})
}

func validPacientID(c *fiber.Ctx) error {
	if !store.IsObjectID(c.Params("pacientId")) {
		return apperr.InvalidRequest(envelope.MsgInvalidRequest)
	}
	return c.Next()
}
