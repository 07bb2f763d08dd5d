package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	applog "ledgerbook/internal/log"
	"ledgerbook/internal/repos"
)

type hardDeleter interface {
	HardDelete(ctx context.Context, id int64) error
}

// AdminHandler carries the administrative operations that bypass sync
// bookkeeping.
type AdminHandler struct {
	kinds map[string]hardDeleter
}

func NewAdminHandler(stores *repos.Stores) *AdminHandler {
	return &AdminHandler{kinds: map[string]hardDeleter{
		repos.ProductTable.Kind:     stores.Products,
		repos.CustomerTable.Kind:    stores.Customers,
		repos.CategoryTable.Kind:    stores.Categories,
		repos.OrderTable.Kind:       stores.Orders,
		repos.TransactionTable.Kind: stores.Transactions,
	}}
}

// DELETE /admin/:kind/:id physically removes a row. No tombstone is left,
// so remote replicas never learn about it.
func (h *AdminHandler) HardDelete(c *fiber.Ctx) error {
	kind := c.Params("kind")
	store, ok := h.kinds[kind]
	if !ok {
		return badRequest(c, "kind")
	}
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	if err := store.HardDelete(c.UserContext(), id); err != nil {
		return fail(c, "admin.hard_delete", err)
	}
	applog.Audit(c, "admin.hard_delete", map[string]any{"record_kind": kind, "id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
