package purchase

import (
	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/apperr"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/request"
)

type PurchaseItemRequest struct {
	ItemName      string         `json:"itemName"`
	Quantity      request.Amount `json:"quantity"`
	Unit          string         `json:"unit"`
	PurchasePrice request.Amount `json:"purchasePrice"`
}

type CreatePurchaseRequest struct {
	PurchaseDate  string                `json:"purchaseDate"`
	Supplier      string                `json:"supplier"`
	FundingSource models.FundingSource  `json:"fundingSource"`
	FundingOwner  string                `json:"fundingOwner"`
	Items         []PurchaseItemRequest `json:"items"`
	Notes         string                `json:"notes"`
}

func dateRange(c *fiber.Ctx) models.DateRange {
	return models.DateRange{Start: c.Query("startDate"), End: c.Query("endDate")}
}

// POST /purchases
func CreatePurchaseHandler(r *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreatePurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		in := Input{
			PurchaseDate:  body.PurchaseDate,
			Supplier:      body.Supplier,
			FundingSource: body.FundingSource,
			FundingOwner:  body.FundingOwner,
			Notes:         body.Notes,
		}
		for _, it := range body.Items {
			in.Items = append(in.Items, ItemInput{
				ItemName:      it.ItemName,
				Quantity:      it.Quantity.Decimal,
				Unit:          it.Unit,
				PurchasePrice: it.PurchasePrice.Decimal,
			})
		}

		p, err := r.Create(c.UserContext(), in, user.Actor())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"purchase": p})
	}
}

// GET /purchases?startDate=2024-01-01&endDate=2024-01-31
func ListPurchasesHandler(r *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		purchases, err := r.List(c.UserContext(), dateRange(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"purchases": purchases})
	}
}

// GET /purchases/summary?startDate=2024-01-01&endDate=2024-01-31
func PurchaseSummaryHandler(r *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := r.Summarize(c.UserContext(), dateRange(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"summary": summary})
	}
}

// GET /purchases/:id
func GetPurchaseHandler(r *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := r.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"purchase": p})
	}
}

// DELETE /purchases/:id
func DeletePurchaseHandler(r *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if err := r.Delete(c.UserContext(), c.Params("id"), user.Actor()); err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
