package sales

import (
	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/apperr"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/request"
)

type CartLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateTransactionRequest struct {
	Items         []CartLineRequest    `json:"items"`
	Discount      request.Amount       `json:"discount"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

// POST /transactions
func CreateTransactionHandler(p *Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "at least one item is required")
		}

		sale := Sale{Discount: body.Discount.Decimal, PaymentMethod: body.PaymentMethod}
		for _, it := range body.Items {
			sale.Items = append(sale.Items, CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		txn, err := p.Process(c.UserContext(), sale, user.Actor())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transaction": txn})
	}
}

// GET /transactions?startDate=2024-01-01&endDate=2024-01-31&limit=100
func ListTransactionsHandler(p *Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := request.BoundedInt(c, "limit", DefaultListLimit, MaxListLimit)
		if err != nil {
			return err
		}

		txns, err := p.List(c.UserContext(), ListFilter{
			Range: models.DateRange{Start: c.Query("startDate"), End: c.Query("endDate")},
			Limit: limit,
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"transactions": txns})
	}
}

// GET /transactions/:id
func GetTransactionHandler(p *Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		txn, err := p.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"transaction": txn})
	}
}
