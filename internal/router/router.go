package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/kita-magazine-reservation/internal/handler" // handlers that implement the endpoints
	"github.com/iliyamo/kita-magazine-reservation/internal/metrics" // Prometheus registry
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// the liveness probe, the health report and the metrics scrape.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, m *metrics.Metrics) {
	// Liveness for load balancers; answers as long as the process serves.
	e.GET("/healthz", handler.Live)
	// Health with configuration presence and reachability of DB and Redis.
	e.GET("/api/health", h.Health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}
