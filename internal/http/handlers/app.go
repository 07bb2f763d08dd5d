package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	applog "ledgerbook/internal/log"
)

type AppOptions struct {
	Log             *zap.Logger
	AdminTokenHash  string
	RateLimitPerMin int // zero disables the limiter
}

// NewApp builds the JSON API with its middleware chain and every route.
func NewApp(d *Deps, opts AppOptions) *fiber.App {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               "ledgerbook",
		ErrorHandler:          ErrorHandler,
		BodyLimit:             1 << 20, // 1 MiB
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(applog.Middleware(opts.Log))
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(applog.Access())
	if opts.RateLimitPerMin > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimitPerMin,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.limit.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
			},
		}))
	}

	api := app.Group("/api/v1")

	for _, r := range []struct {
		path string
		h    interface {
			List(*fiber.Ctx) error
			Get(*fiber.Ctx) error
			Create(*fiber.Ctx) error
			Update(*fiber.Ctx) error
			Delete(*fiber.Ctx) error
		}
	}{
		{"/products", d.ProductHandler},
		{"/customers", d.CustomerHandler},
		{"/categories", d.CategoryHandler},
	} {
		g := api.Group(r.path)
		g.Get("/", r.h.List)
		g.Post("/", r.h.Create)
		g.Get("/:id", r.h.Get)
		g.Put("/:id", r.h.Update)
		g.Delete("/:id", r.h.Delete)
	}
	api.Post("/products/:id/restock", d.InventoryHandler.Restock)
	api.Get("/availability", d.InventoryHandler.Check)
	api.Get("/inventory/low", d.InventoryHandler.Low)

	api.Get("/orders", d.OrderHandler.List)
	api.Post("/orders", d.OrderHandler.Place)
	api.Get("/orders/:id", d.OrderHandler.View)
	api.Post("/orders/:id/pay", d.OrderHandler.Pay)
	api.Post("/orders/:id/cancel", d.OrderHandler.Cancel)

	api.Get("/transactions", d.TransactionHandler.List)
	api.Post("/transactions/income", d.TransactionHandler.CreateIncome)
	api.Post("/transactions/expense", d.TransactionHandler.CreateExpense)
	api.Get("/transactions/:id", d.TransactionHandler.Get)
	api.Delete("/transactions/:id", d.TransactionHandler.Delete)

	api.Get("/cashflow/summary", d.CashFlowHandler.Summary)
	api.Get("/cashflow/history", d.CashFlowHandler.History)
	api.Get("/dashboard", d.CashFlowHandler.Dashboard)

	api.Get("/sync/stats", d.SyncHandler.Stats)
	api.Get("/sync/changes", d.SyncHandler.Changes)
	api.Post("/sync/ack", d.SyncHandler.Ack)
	api.Post("/sync/complete", d.SyncHandler.Complete)

	admin := api.Group("/admin", RequireAdmin(opts.AdminTokenHash))
	admin.Delete("/:kind/:id", d.AdminHandler.HardDelete)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
	return app
}
