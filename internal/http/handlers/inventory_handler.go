package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "ledgerbook/internal/log"
	"ledgerbook/internal/services"
	"ledgerbook/internal/validate"
)

type InventoryHandler struct {
	Inv    *services.InventoryService
	Orders *services.OrderService
}

// GET /availability?productId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing productId",
		})
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), id)
	if err != nil {
		return fail(c, "inventory.check", err)
	}
	return c.JSON(avail)
}

// GET /inventory/low
func (h *InventoryHandler) Low(c *fiber.Ctx) error {
	rows, err := h.Inv.LowStock(c.UserContext())
	if err != nil {
		return fail(c, "inventory.low", err)
	}
	return c.JSON(rows)
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

// POST /products/:id/restock
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	var req restockRequest
	if err := c.BodyParser(&req); err != nil || !validate.Qty(req.Quantity) {
		return badRequest(c, "quantity")
	}
	p, err := h.Orders.Restock(c.UserContext(), id, req.Quantity)
	if err != nil {
		return fail(c, "inventory.restock", err)
	}
	applog.Audit(c, "inventory.restock", map[string]any{"product_id": id, "qty": req.Quantity, "stock": p.StockCount})
	return c.JSON(p)
}
