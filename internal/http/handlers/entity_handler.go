package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"ledgerbook/internal/domain"
	applog "ledgerbook/internal/log"
	"ledgerbook/internal/repos"
	"ledgerbook/internal/validate"
)

// EntityHandler exposes the plain CRUD surface of one record kind.
//
// Check validates and normalises a decoded body; Carry copies fields the
// API may not overwrite from the stored record onto the incoming one.
type EntityHandler[T any, P repos.Ptr[T]] struct {
	Store *repos.Store[T, P]
	Check func(*T) error
	Carry func(stored, in *T)
}

type (
	ProductHandler  = EntityHandler[domain.Product, *domain.Product]
	CustomerHandler = EntityHandler[domain.Customer, *domain.Customer]
	CategoryHandler = EntityHandler[domain.Category, *domain.Category]
)

func (h *EntityHandler[T, P]) action(verb string) string {
	return h.Store.Kind() + "." + verb
}

// GET /<kind>
func (h *EntityHandler[T, P]) List(c *fiber.Ctx) error {
	all, err := h.Store.ListActive(c.UserContext())
	if err != nil {
		return fail(c, h.action("list"), err)
	}
	return c.JSON(all)
}

// GET /<kind>/:id
func (h *EntityHandler[T, P]) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	v, err := h.Store.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, h.action("get"), err)
	}
	return c.JSON(v)
}

func (h *EntityHandler[T, P]) decode(c *fiber.Ctx) (*T, error) {
	var in T
	if err := c.BodyParser(&in); err != nil {
		return nil, fmt.Errorf("body: %w", domain.ErrInvalidInput)
	}
	if h.Check != nil {
		if err := h.Check(&in); err != nil {
			return nil, err
		}
	}
	return &in, nil
}

// POST /<kind>
func (h *EntityHandler[T, P]) Create(c *fiber.Ctx) error {
	in, err := h.decode(c)
	if err != nil {
		return fail(c, h.action("create"), err)
	}
	ctx := c.UserContext()
	id, err := h.Store.Create(ctx, *in)
	if err != nil {
		return fail(c, h.action("create"), err)
	}
	v, err := h.Store.Get(ctx, id)
	if err != nil {
		return fail(c, h.action("create"), err)
	}
	applog.Audit(c, h.action("create"), map[string]any{"id": id})
	return c.Status(fiber.StatusCreated).JSON(v)
}

// PUT /<kind>/:id replaces the business fields of an active record.
func (h *EntityHandler[T, P]) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	in, err := h.decode(c)
	if err != nil {
		return fail(c, h.action("update"), err)
	}
	v, err := h.Store.Update(c.UserContext(), id, func(cur *T) error {
		if !P(cur).Meta().Active() {
			return fmt.Errorf("%s %d: %w", h.Store.Kind(), id, domain.ErrNotFound)
		}
		if h.Carry != nil {
			h.Carry(cur, in)
		}
		*cur = *in
		return nil
	})
	if err != nil {
		return fail(c, h.action("update"), err)
	}
	applog.Audit(c, h.action("update"), map[string]any{"id": id})
	return c.JSON(v)
}

// DELETE /<kind>/:id tombstones the record.
func (h *EntityHandler[T, P]) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "id")
	}
	if err := h.Store.SoftDelete(c.UserContext(), id); err != nil {
		return fail(c, h.action("delete"), err)
	}
	applog.Audit(c, h.action("delete"), map[string]any{"id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func invalid(field string) error {
	return fmt.Errorf("invalid %s: %w", field, domain.ErrInvalidInput)
}

func newProductHandler(s *repos.ProductStore) *ProductHandler {
	return &ProductHandler{
		Store: s,
		Check: func(p *domain.Product) error {
			var ok bool
			if p.Name, ok = validate.Name(p.Name); !ok {
				return invalid("name")
			}
			if p.BaseCost.IsNegative() {
				return invalid("baseCost")
			}
			// every sale books an income entry, and entries are never zero
			if !p.SellingPrice.IsPositive() {
				return invalid("sellingPrice")
			}
			if p.StockCount < 0 {
				return invalid("stockCount")
			}
			return nil
		},
		// stock only moves through orders and restocks
		Carry: func(stored, in *domain.Product) { in.StockCount = stored.StockCount },
	}
}

func newCustomerHandler(s *repos.CustomerStore) *CustomerHandler {
	return &CustomerHandler{
		Store: s,
		Check: func(cu *domain.Customer) error {
			var ok bool
			if cu.Name, ok = validate.Name(cu.Name); !ok {
				return invalid("name")
			}
			if cu.Email, ok = validate.Email(cu.Email); !ok {
				return invalid("email")
			}
			if cu.Phone, ok = validate.Phone(cu.Phone); !ok {
				return invalid("phone")
			}
			return nil
		},
	}
}

func newCategoryHandler(s *repos.CategoryStore) *CategoryHandler {
	return &CategoryHandler{
		Store: s,
		Check: func(ca *domain.Category) error {
			var ok bool
			if ca.Name, ok = validate.Name(ca.Name); !ok {
				return invalid("name")
			}
			if ca.Type, ok = validate.Direction(string(ca.Type)); !ok {
				return invalid("type")
			}
			if ca.Color, ok = validate.Color(ca.Color); !ok {
				return invalid("color")
			}
			return nil
		},
	}
}
