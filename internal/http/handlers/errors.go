package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
)

// writeError maps a service error to its status and an {error} body.
func writeError(c *fiber.Ctx, err error) error {
	var (
		ve   *domain.ValidationError
		se   *domain.StockError
		nf   *domain.NotFoundError
		fe   *domain.ForbiddenError
		ferr *fiber.Error
	)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return fail(c, fiber.StatusUnauthorized, "Authentication required")
	case errors.As(err, &ve):
		return fail(c, fiber.StatusBadRequest, ve.Msg)
	case errors.As(err, &se):
		return fail(c, fiber.StatusBadRequest, se.Error())
	case errors.As(err, &nf):
		return fail(c, fiber.StatusNotFound, notFoundMessage(nf))
	case errors.As(err, &fe):
		applog.Security(c, "access.denied", map[string]any{"reason": fe.Msg})
		return fail(c, fiber.StatusForbidden, fe.Msg)
	case errors.As(err, &ferr):
		return fail(c, ferr.Code, ferr.Message)
	}
	applog.Error(c, "server.error", err, nil)
	return fail(c, fiber.StatusInternalServerError, err.Error())
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func notFoundMessage(nf *domain.NotFoundError) string {
	if nf.Kind == "" {
		return "Not found"
	}
	return strings.ToUpper(nf.Kind[:1]) + nf.Kind[1:] + " not found"
}

// ErrorHandler is the app-wide fallback for errors returned by handlers and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}
