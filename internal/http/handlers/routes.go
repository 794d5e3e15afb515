package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "storefront/internal/log"
)

// Mount registers the API routes on app.
func Mount(app *fiber.App, d *Deps) {
	authed := RequireUser(d.Auth)

	app.Use(Authenticate(d.Auth))

	// Auth (login throttled)
	app.Post("/auth/register", d.AuthHandler.Register)
	app.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "Too many attempts. Please try again later.")
		},
	}), d.AuthHandler.Login)
	app.Post("/auth/logout", d.AuthHandler.Logout)
	app.Get("/users/me", authed, d.AuthHandler.Me)

	// Catalog
	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	})
	app.Get("/products/:id", d.ProductHandler.Detail)
	app.Get("/products/:id/availability", availLimiter, d.InventoryHandler.Check)
	app.Get("/products/:id/reviews", d.ReviewHandler.List)
	app.Post("/products", authed, d.ProductHandler.Create)
	app.Patch("/products/:id", authed, d.ProductHandler.Update)
	app.Delete("/products/:id", authed, d.ProductHandler.Delete)

	// Orders
	app.Post("/orders", authed, d.OrderHandler.Place)
	app.Get("/orders", authed, d.OrderHandler.List)
	app.Get("/orders/:id", authed, d.OrderHandler.View)
	app.Patch("/orders/:id/status", RequireAdmin(d.Auth), d.AdminHandler.UpdateOrderStatus)

	// Wishlist & reviews
	app.Get("/wishlist", authed, d.WishlistHandler.List)
	app.Post("/wishlist/toggle", authed, d.WishlistHandler.Toggle)
	app.Post("/reviews", authed, d.ReviewHandler.Create)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
}
