package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(items)
}

type toggleBody struct {
	ProductID string `json:"productId"`
}

// POST /wishlist/toggle
func (h *WishlistHandler) Toggle(c *fiber.Ctx) error {
	var body toggleBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	pid, ok := validate.ID(body.ProductID)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "missing productId")
	}
	saved, err := h.Wish.Toggle(c.UserContext(), currentUser(c), pid)
	if err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "wishlist.toggle", map[string]any{"product": pid, "saved": saved})
	return c.JSON(fiber.Map{"product_id": pid, "saved": saved})
}
