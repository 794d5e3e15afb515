package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type AdminHandler struct {
	Order *services.OrderService
}

type statusBody struct {
	Status string `json:"status"`
}

// PATCH /orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	var body statusBody
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return fail(c, fiber.StatusBadRequest, "missing status")
	}
	v, err := h.Order.UpdateStatus(c.UserContext(), currentUser(c), id, body.Status)
	if err != nil {
		applog.Warn(c, "admin.orders.update.fail", err, map[string]any{"order_id": id, "status": body.Status})
		return writeError(c, err)
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": v.Status})
	return c.JSON(v)
}
