package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ledgerbook/internal/domain"
	applog "ledgerbook/internal/log"
	"ledgerbook/internal/validate"
)

// statusOf maps domain failures onto HTTP status codes.
func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the JSON error body for err. Storage and unknown failures are
// logged in full and reported without internals.
func fail(c *fiber.Ctx, action string, err error) error {
	status := statusOf(err)
	c.Status(status)
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, action+".fail", err, nil)
		return c.JSON(fiber.Map{"error": "Something went wrong. Please try again."})
	}
	applog.Info(c, action+".reject", map[string]any{"error": err.Error()})
	return c.JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + field})
}

// ErrorHandler is the app-wide fallback for errors handlers return instead
// of writing themselves.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return fail(c, "server", err)
}

func paramID(c *fiber.Ctx) (int64, bool) {
	return validate.ID(c.Params("id"))
}
