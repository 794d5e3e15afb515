package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

type reviewBody struct {
	ProductID string `json:"product"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// GET /products/:id/reviews
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	out, err := h.Reviews.ListByProduct(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// POST /reviews
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var body reviewBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	pid, ok := validate.ID(body.ProductID)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "missing product")
	}
	rv, err := h.Reviews.Create(c.UserContext(), currentUser(c), pid, body.Rating, body.Comment)
	if err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "review.create", map[string]any{"product": pid, "rating": rv.Rating})
	return c.Status(fiber.StatusCreated).JSON(rv)
}
