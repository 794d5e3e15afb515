package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(services.NewProductView(p))
}

// POST /products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	p, err := h.Catalog.Create(c.UserContext(), currentUser(c), in)
	if err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "product.create", map[string]any{"product": p.ID, "stock": p.StockQuantity})
	return c.Status(fiber.StatusCreated).JSON(services.NewProductView(p))
}

// PATCH /products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	p, err := h.Catalog.Update(c.UserContext(), currentUser(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "product.update", map[string]any{"product": p.ID, "stock": p.StockQuantity, "price": p.Price.StringFixed(2)})
	return c.JSON(services.NewProductView(p))
}

// DELETE /products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	if err := h.Catalog.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "product.delete", map[string]any{"product": id})
	return c.SendStatus(fiber.StatusNoContent)
}
