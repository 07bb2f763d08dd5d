package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "ledgerbook/internal/log"
	"ledgerbook/internal/repos"
	"ledgerbook/internal/services"
	"ledgerbook/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
	Store  *repos.OrderStore
}

type placeOrderRequest struct {
	CustomerID int64 `json:"customerId"`
	ProductID  int64 `json:"productId"`
	Quantity   int   `json:"quantity"`
}

// POST /orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	if req.CustomerID <= 0 {
		return badRequest(c, "customerId")
	}
	if req.ProductID <= 0 {
		return badRequest(c, "productId")
	}
	if !validate.Qty(req.Quantity) {
		return badRequest(c, "quantity")
	}

	o, err := h.Orders.Create(c.UserContext(), req.CustomerID, req.ProductID, req.Quantity)
	if err != nil {
		return fail(c, "order.place", err)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"quantity": o.Quantity,
		"total":    o.TotalAmount.StringFixed(2),
	})
	return c.Status(fiber.StatusCreated).JSON(o)
}

// POST /orders/:id/pay
func (h *OrderHandler) Pay(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	res, err := h.Orders.MarkAsPaid(c.UserContext(), id)
	if err != nil {
		return fail(c, "order.pay", err)
	}
	applog.Audit(c, "order.pay", map[string]any{
		"order_id":       id,
		"transaction_id": res.TransactionID,
		"already_paid":   res.AlreadyPaid,
	})
	return c.JSON(res)
}

// POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	res, err := h.Orders.Cancel(c.UserContext(), id)
	if err != nil {
		return fail(c, "order.cancel", err)
	}
	applog.Audit(c, "order.cancel", map[string]any{
		"order_id":          id,
		"stock_restored":    res.StockRestored,
		"already_cancelled": res.AlreadyCancelled,
	})
	return c.JSON(res)
}

// GET /orders?status=&sort=date|totalAmount&order=asc|desc
func (h *OrderHandler) List(c *fiber.Ctx) error {
	var f services.OrderFilter
	if s := c.Query("status"); s != "" {
		st, ok := validate.OrderStatus(s)
		if !ok {
			return badRequest(c, "status")
		}
		f.Status = st
	}
	switch sort := c.Query("sort", "date"); sort {
	case "date", "totalAmount":
		f.SortBy = sort
	default:
		return badRequest(c, "sort")
	}
	f.Asc = c.Query("order") == "asc"

	views, err := h.Orders.List(c.UserContext(), f)
	if err != nil {
		return fail(c, "order.list", err)
	}
	return c.JSON(views)
}

// GET /orders/:id returns the order even once cancelled.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	o, err := h.Store.Lookup(c.UserContext(), id)
	if err != nil {
		return fail(c, "order.view", err)
	}
	return c.JSON(o)
}
