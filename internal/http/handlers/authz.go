package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

// sessionID reads the sid cookie, falling back to an Authorization: Bearer token.
func sessionID(c *fiber.Ctx) string {
	if sid := c.Cookies("sid"); sid != "" {
		return sid
	}
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// attach resolves the session's user into Locals, if any.
func attach(c *fiber.Ctx, auth *services.AuthService) *domain.User {
	if u := currentUser(c); u != nil {
		return u
	}
	sid := sessionID(c)
	if sid == "" {
		return nil
	}
	u, err := auth.CurrentUser(c.UserContext(), sid)
	if err != nil || u == nil {
		return nil
	}
	c.Locals("user", u)
	c.Locals("sid", sid)
	return u
}

// Authenticate attaches the session's user to the request when there is one. It never rejects.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		attach(c, auth)
		return c.Next()
	}
}

// RequireUser rejects requests without a valid session.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if attach(c, auth) == nil {
			applog.Security(c, "access.denied.anon", nil)
			return fail(c, fiber.StatusUnauthorized, "Authentication required")
		}
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := attach(c, auth)
		if u == nil {
			applog.Security(c, "access.denied.anon", nil)
			return fail(c, fiber.StatusUnauthorized, "Authentication required")
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"role": u.Role})
			return fail(c, fiber.StatusForbidden, "Admin access required")
		}
		return c.Next()
	}
}
