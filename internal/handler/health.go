package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *mongo.Client via a small adapter in main.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers load balancer probes.
type HealthHandler struct {
	DB Pinger
}

// Health returns 200 "ok" while the document store answers a ping, and
// 503 otherwise.  A nil DB only reports that the process is up.
func (h *HealthHandler) Health(c echo.Context) error {
	if h == nil || h.DB == nil {
		return c.String(http.StatusOK, "ok")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		return c.String(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.String(http.StatusOK, "ok")
}
