package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ledgerbook/internal/services"
)

type CashFlowHandler struct {
	CashFlow *services.CashFlowService
}

// GET /cashflow/summary
func (h *CashFlowHandler) Summary(c *fiber.Ctx) error {
	sum, err := h.CashFlow.Summary(c.UserContext())
	if err != nil {
		return fail(c, "cashflow.summary", err)
	}
	return c.JSON(sum)
}

// GET /cashflow/history?limit=
func (h *CashFlowHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return badRequest(c, "limit")
	}
	txs, err := h.CashFlow.RecentHistory(c.UserContext(), limit)
	if err != nil {
		return fail(c, "cashflow.history", err)
	}
	return c.JSON(txs)
}

// GET /dashboard
func (h *CashFlowHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.CashFlow.Dashboard(c.UserContext())
	if err != nil {
		return fail(c, "dashboard", err)
	}
	return c.JSON(stats)
}
