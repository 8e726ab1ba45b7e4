package inventory

import (
	"context"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/apperr"
)

type CategorySummary struct {
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
	TotalStock   int    `json:"totalStock"`
}

// Categories lists the distinct product categories, case-insensitively merged and sorted by
// name. Products without a category are grouped under "".
func (c *Catalog) Categories(ctx context.Context) ([]CategorySummary, error) {
	products, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*CategorySummary)
	for _, p := range products {
		key := strings.ToLower(p.Category)
		cs, ok := byKey[key]
		if !ok {
			cs = &CategorySummary{Name: p.Category}
			byKey[key] = cs
		}
		cs.ProductCount++
		cs.TotalStock += p.Stock
	}

	out := make([]CategorySummary, 0, len(byKey))
	for _, cs := range byKey {
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

// GET /products/categories
func ListProductCategoriesHandler(catalog *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categories, err := catalog.Categories(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"categories": categories})
	}
}
