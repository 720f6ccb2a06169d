package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/decorhub/decorhub/pkg/ctx"
	"github.com/decorhub/decorhub/pkg/ws"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store   Pinger
	timeout time.Duration
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store: store, timeout: 2 * time.Second}
}

// Check GET /healthz: 200 while the store answers, 503 otherwise.
func (h *HealthController) Check(c *ctx.Context) {
	pctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(pctx); err != nil {
		c.Logger().Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	c.OK(map[string]string{"status": "ok"})
}

type LiveController struct {
	hub *ws.Hub
}

func NewLiveController(hub *ws.Hub) *LiveController {
	return &LiveController{hub: hub}
}

// Inquiries GET /api/admin/inquiries/live upgrades to a WebSocket that
// receives an "inquiry.created" frame per new inquiry.
func (l *LiveController) Inquiries(c *ctx.Context) {
	if err := l.hub.Serve(c.W, c.R); err != nil {
		// the upgrader already answered the client
		c.Logger().Warn("live feed upgrade failed", "error", err)
	}
}
