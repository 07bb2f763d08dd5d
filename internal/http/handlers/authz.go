package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	applog "ledgerbook/internal/log"
)

const AdminTokenHeader = "X-Admin-Token"

// RequireAdmin admits requests whose admin token matches the configured
// bcrypt hash. An empty hash disables the guarded routes entirely.
func RequireAdmin(tokenHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenHash == "" {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "disabled"})
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		tok := strings.TrimSpace(c.Get(AdminTokenHeader))
		if tok == "" || bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(tok)) != nil {
			applog.Security(c, "access.denied.admin", map[string]any{"has_token": tok != ""})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
		}
		return c.Next()
	}
}
