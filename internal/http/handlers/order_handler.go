package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
}

// POST /orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body", "error": err.Error()})
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	view, err := h.Order.Checkout(c.UserContext(), currentUser(c), req)
	if err != nil {
		var se *domain.StockError
		switch {
		case domain.IsNotFound(err):
			applog.Security(c, "order.place.fail", map[string]any{"reason": "not_found", "error": err.Error()})
			return fail(c, fiber.StatusNotFound, "One or more products not found")
		case errors.As(err, &se):
			applog.Info(c, "order.place.fail", map[string]any{
				"reason":    "insufficient_stock",
				"product":   se.ProductID,
				"requested": se.Requested,
				"available": se.Available,
			})
		}
		return writeError(c, err)
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id": view.ID,
		"total":    view.TotalAmount,
		"lines":    len(view.Items),
	})
	return c.Status(fiber.StatusCreated).JSON(view)
}

// GET /orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	views, err := h.Order.List(c.UserContext(), currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(views)
}

// GET /orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	v, err := h.Order.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		if domain.IsNotFound(err) {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		}
		return writeError(c, err)
	}
	return c.JSON(v)
}
