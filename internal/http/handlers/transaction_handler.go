package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"ledgerbook/internal/domain"
	applog "ledgerbook/internal/log"
	"ledgerbook/internal/repos"
	"ledgerbook/internal/services"
	"ledgerbook/internal/validate"
)

type TransactionHandler struct {
	Txs   *services.TransactionService
	Store *repos.TransactionStore
}

// GET /transactions?type=INCOME|EXPENSE
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	var dir domain.Direction
	if s := c.Query("type"); s != "" {
		d, ok := validate.Direction(s)
		if !ok {
			return badRequest(c, "type")
		}
		dir = d
	}
	txs, err := h.Txs.List(c.UserContext(), dir)
	if err != nil {
		return fail(c, "transaction.list", err)
	}
	return c.JSON(txs)
}

// GET /transactions/:id
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	t, err := h.Store.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "transaction.get", err)
	}
	return c.JSON(t)
}

// POST /transactions/income
func (h *TransactionHandler) CreateIncome(c *fiber.Ctx) error {
	return h.create(c, h.Txs.CreateIncome)
}

// POST /transactions/expense
func (h *TransactionHandler) CreateExpense(c *fiber.Ctx) error {
	return h.create(c, h.Txs.CreateExpense)
}

type createEntry func(ctx context.Context, in services.EntryInput) (*domain.Transaction, error)

func (h *TransactionHandler) create(c *fiber.Ctx, fn createEntry) error {
	var in services.EntryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	t, err := fn(c.UserContext(), in)
	if err != nil {
		return fail(c, "transaction.create", err)
	}
	applog.Audit(c, "transaction.create", map[string]any{
		"transaction_id": t.ID,
		"type":           string(t.Type),
		"amount":         t.Amount.StringFixed(2),
	})
	return c.Status(fiber.StatusCreated).JSON(t)
}

// DELETE /transactions/:id
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	if err := h.Txs.Delete(c.UserContext(), id); err != nil {
		return fail(c, "transaction.delete", err)
	}
	applog.Audit(c, "transaction.delete", map[string]any{"transaction_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
