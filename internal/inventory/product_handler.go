package inventory

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/apperr"
	"pos-backend/internal/auth"
	"pos-backend/internal/request"
)

type CreateProductRequest struct {
	Name         string         `json:"name"`
	Category     string         `json:"category"`
	SellingPrice request.Amount `json:"sellingPrice"`
	CostPrice    request.Amount `json:"costPrice"`
	Stock        int            `json:"stock"`
	Description  string         `json:"description"`
}

type UpdateProductRequest struct {
	Name         *string         `json:"name"`
	Category     *string         `json:"category"`
	SellingPrice *request.Amount `json:"sellingPrice"`
	CostPrice    *request.Amount `json:"costPrice"`
	Description  *string         `json:"description"`
}

// GET /products
func ListProductsHandler(catalog *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := catalog.List(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"products": products})
	}
}

// GET /products/:id
func GetProductHandler(catalog *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := catalog.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"product": p})
	}
}

// POST /products
func CreateProductHandler(catalog *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		p, err := catalog.Create(c.UserContext(), ProductInput{
			Name:         body.Name,
			Category:     body.Category,
			SellingPrice: body.SellingPrice.Decimal,
			CostPrice:    body.CostPrice.Decimal,
			Stock:        body.Stock,
			Description:  body.Description,
		}, user.Actor())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"product": p})
	}
}

// PUT /products/:id
func UpdateProductHandler(catalog *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		p, err := catalog.Update(c.UserContext(), c.Params("id"), ProductPatch{
			Name:         body.Name,
			Category:     body.Category,
			SellingPrice: body.SellingPrice.Ptr(),
			CostPrice:    body.CostPrice.Ptr(),
			Description:  body.Description,
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"product": p})
	}
}

// DELETE /products/:id
func DeleteProductHandler(catalog *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if err := catalog.Delete(c.UserContext(), c.Params("id"), user.Actor()); err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
