package inventory

import (
	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/apperr"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/request"
)

type AdjustStockRequest struct {
	Change int                    `json:"change"`
	Type   models.StockChangeType `json:"type"`
	Reason string                 `json:"reason"`
}

// PUT /stock/:productId
func AdjustStockHandler(ledger *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body AdjustStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Change == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "change must be a non-zero integer")
		}

		p, entry, err := ledger.Adjust(c.UserContext(), c.Params("productId"), body.Change, body.Type, body.Reason, user.Actor())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"product": p, "entry": entry})
	}
}

// GET /stock/history?productId=...&limit=50
func StockHistoryHandler(ledger *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := request.BoundedInt(c, "limit", DefaultHistoryLimit, MaxHistoryLimit)
		if err != nil {
			return err
		}

		history, err := ledger.History(c.UserContext(), c.Query("productId"), limit)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"history": history})
	}
}
