package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ledgerbook/internal/domain"
	applog "ledgerbook/internal/log"
	"ledgerbook/internal/services"
)

type SyncHandler struct {
	Sync *services.SyncService
}

// GET /sync/stats
func (h *SyncHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Sync.Stats(c.UserContext())
	if err != nil {
		return fail(c, "sync.stats", err)
	}
	return c.JSON(st)
}

// GET /sync/changes?since=<unix ms>; since defaults to the last watermark.
func (h *SyncHandler) Changes(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var since domain.Millis
	if c.Query("since") == "" {
		last, err := h.Sync.LastSync(ctx)
		if err != nil {
			return fail(c, "sync.changes", err)
		}
		since = last
	} else {
		v := c.QueryInt("since", -1)
		if v < 0 {
			return badRequest(c, "since")
		}
		since = domain.Millis(v)
	}
	cs, err := h.Sync.Changes(ctx, since)
	if err != nil {
		return fail(c, "sync.changes", err)
	}
	applog.Info(c, "sync.changes", map[string]any{"export_id": cs.ExportID, "records": cs.Len()})
	return c.JSON(cs)
}

type ackRequest struct {
	Acks []services.Ack `json:"acks"`
}

// POST /sync/ack
func (h *SyncHandler) Ack(c *fiber.Ctx) error {
	var req ackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	res, err := h.Sync.Acknowledge(c.UserContext(), req.Acks)
	if err != nil {
		return fail(c, "sync.ack", err)
	}
	applog.Audit(c, "sync.ack", map[string]any{"applied": res.Applied, "stale": res.Stale})
	return c.JSON(res)
}

type completeRequest struct {
	Timestamp domain.Millis `json:"timestamp"`
}

// POST /sync/complete
func (h *SyncHandler) Complete(c *fiber.Ctx) error {
	var req completeRequest
	if err := c.BodyParser(&req); err != nil || req.Timestamp <= 0 {
		return badRequest(c, "timestamp")
	}
	wm, err := h.Sync.RecordSyncCompletion(c.UserContext(), req.Timestamp)
	if err != nil {
		return fail(c, "sync.complete", err)
	}
	applog.Audit(c, "sync.complete", map[string]any{"watermark": int64(wm)})
	return c.JSON(fiber.Map{"lastSync": wm})
}
