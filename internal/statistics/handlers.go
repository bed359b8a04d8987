package statistics

import (
	"backend-breathstats/internal/shared/envelope"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the statistics endpoint under the pacients group.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:pacientId/statistics", authMiddleware, func(c *fiber.Ctx) error {
		params := c.Queries()
		params[ParamPacientID] = c.Params("pacientId")

		rows, err := svc.PacientStatistics(c.UserContext(), params)
		if err != nil {
			return err
		}
		return envelope.OK(c, rows)
	})
}
