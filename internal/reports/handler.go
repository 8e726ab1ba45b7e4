package reports

import (
	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/apperr"
	"pos-backend/internal/models"
)

func dateRange(c *fiber.Ctx) models.DateRange {
	return models.DateRange{Start: c.Query("startDate"), End: c.Query("endDate")}
}

// GET /reports/sales?startDate=2024-01-01&endDate=2024-01-31&groupBy=week
func SalesReportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.SalesReport(c.UserContext(), dateRange(c), c.Query("groupBy"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"report": report})
	}
}

// GET /reports/products?startDate=2024-01-01&endDate=2024-01-31
func ProductReportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.ProductReport(c.UserContext(), dateRange(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"report": report})
	}
}

// GET /transactions/summary?date=2024-01-05
func DailySummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := svc.DailySummary(c.UserContext(), c.Query("date"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"summary": summary})
	}
}
