package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-console/internal/api/dto"
	"github.com/spec-kit/restaurant-console/internal/auth"
	"github.com/spec-kit/restaurant-console/internal/guard"
	apperrors "github.com/spec-kit/restaurant-console/pkg/util/errorutil"
)

const defaultHeartbeat = 15 * time.Second

// GuardEventsHandler streams route guard decisions for an open page as
// Server-Sent Events, so a sign-out or role change elsewhere redirects it.
type GuardEventsHandler struct {
	base      context.Context
	pages     map[string]guard.RoleSet
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewGuardEventsHandler constructs handler. Streams end when base is cancelled.
func NewGuardEventsHandler(base context.Context, heartbeat time.Duration, logger *zap.Logger) *GuardEventsHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pages := make(map[string]guard.RoleSet, len(GuardedPages))
	for path, roles := range GuardedPages {
		pages[path] = guard.NewRoleSet(roles...)
	}
	return &GuardEventsHandler{base: base, pages: pages, heartbeat: heartbeat, logger: logger}
}

// Stream handles GET /events/guard?page=<path>. A redirect decision is the
// last event of a stream.
func (h *GuardEventsHandler) Stream(c *fiber.Ctx) error {
	page := c.Query("page")
	allowed, ok := h.pages[page]
	if !ok {
		return apperrors.NewNotFound("guarded page", map[string]any{"page": page})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	sess, signedIn := auth.SessionFromContext(c)
	if !signedIn {
		d := guard.Decide(auth.StateFromContext(c), allowed)
		return c.SendString(formatGuardEvent(page, d))
	}

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(h.base)
		defer cancel()

		decisions := guard.Watch(ctx, sess, allowed)
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-decisions:
				if !ok {
					return
				}
				if _, err := w.WriteString(formatGuardEvent(page, d)); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
				if d.Location() != "" {
					h.logger.Debug("guard stream redirected",
						zap.String("uid", sess.UID()),
						zap.String("page", page),
						zap.String("location", d.Location()))
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func formatGuardEvent(page string, d guard.Decision) string {
	payload, _ := json.Marshal(dto.GuardEvent{Page: page, Decision: d.String(), Location: d.Location()})
	return fmt.Sprintf("event: decision\ndata: %s\n\n", payload)
}
