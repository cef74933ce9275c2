package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tesotunes/storefront/pkg/logging"
)

// Pinger is anything readiness depends on: the database, the cart store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHTTP struct {
	Checks map[string]Pinger
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	for name, p := range h.Checks {
		if err := p.Ping(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_check_failed", "check", name, "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "check": name})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
