package audit

import (
	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/apperr"
	"pos-backend/internal/request"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// GET /audit-logs?entityType=order&limit=50
func ListAuditLogsHandler(logger *Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := request.BoundedInt(c, "limit", defaultListLimit, maxListLimit)
		if err != nil {
			return err
		}

		logs, err := logger.List(c.UserContext(), c.Query("entityType"), limit)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"logs": logs})
	}
}
