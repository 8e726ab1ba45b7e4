package orders

import (
	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/apperr"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
)

type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName    string             `json:"customerName"`
	CustomerPhone   string             `json:"customerPhone"`
	CustomerAddress string             `json:"customerAddress"`
	Items           []OrderItemRequest `json:"items"`
	DeliveryDate    string             `json:"deliveryDate"`
	DeliveryTime    string             `json:"deliveryTime"`
	Notes           string             `json:"notes"`
}

type UpdateOrderRequest struct {
	Status *models.OrderStatus `json:"status"`
	Notes  *string             `json:"notes"`
}

// POST /orders
func CreateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		in := CreateInput{
			CustomerName:    body.CustomerName,
			CustomerPhone:   body.CustomerPhone,
			CustomerAddress: body.CustomerAddress,
			DeliveryDate:    body.DeliveryDate,
			DeliveryTime:    body.DeliveryTime,
			Notes:           body.Notes,
		}
		for _, it := range body.Items {
			in.Items = append(in.Items, ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		o, err := svc.Create(c.UserContext(), in, user.Actor())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": o})
	}
}

// GET /orders?status=pending
func ListOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := svc.List(c.UserContext(), models.OrderStatus(c.Query("status")))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"orders": orders})
	}
}

// GET /orders/upcoming
func UpcomingOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := svc.Upcoming(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"orders": orders})
	}
}

// GET /orders/:id
func GetOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"order": o})
	}
}

// PUT /orders/:id
func UpdateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body UpdateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Status == nil && body.Notes == nil {
			return fiber.NewError(fiber.StatusBadRequest, "status or notes is required")
		}

		o, err := svc.Update(c.UserContext(), c.Params("id"), UpdateInput{Status: body.Status, Notes: body.Notes}, user.Actor())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"order": o})
	}
}

// DELETE /orders/:id
func DeleteOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), c.Params("id"), user.Actor()); err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
