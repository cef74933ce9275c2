package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tesotunes/storefront/internal/service"
	"github.com/tesotunes/storefront/pkg/logging"
)

type StatsHTTP struct {
	Svc *service.StatsService
}

func (h *StatsHTTP) StoreStats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.store.stats")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "store_stats_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, l, "store_stats_error", err)
	}

	stats, err := h.Svc.StoreStats(ctx, actor, id)
	if err != nil {
		return fail(c, l, "store_stats_error", err)
	}
	return ok(c, http.StatusOK, "store statistics", stats)
}
