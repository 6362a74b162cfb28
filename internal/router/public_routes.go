package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kita-magazine-reservation/internal/handler"
	"github.com/iliyamo/kita-magazine-reservation/internal/middleware"
)

// Public bundles what the parent-facing routes need.  Limiter middleware
// may be nil, which disables limiting for that group.
type Public struct {
	Magazines    *handler.MagazineHandler
	Reservations *handler.ReservationHandler
	GDPR         *handler.GDPRHandler
	Cache        *middleware.ResponseCache
	ReserveLimit echo.MiddlewareFunc
	GDPRLimit    echo.MiddlewareFunc
}

func orPass(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}

// RegisterPublic registers the magazine listing, the reservation form
// endpoint and the GDPR endpoints under /api.
func RegisterPublic(e *echo.Echo, p Public) {
	api := e.Group("/api")

	// Listing is cached in Redis when available; writers invalidate it.
	api.GET("/magazines", p.Magazines.List, p.Cache.Middleware())

	// 5 requests / 15 minutes per client IP by default.
	api.POST("/reservations", p.Reservations.Create, orPass(p.ReserveLimit))

	g := api.Group("/gdpr", orPass(p.GDPRLimit))
	g.POST("/consent", p.GDPR.RecordConsent)
	g.DELETE("/consent", p.GDPR.WithdrawConsent)
	g.GET("/consent", p.GDPR.GetConsent)
	g.POST("/export-data", p.GDPR.ExportData)
	// POST checks eligibility, DELETE performs the erasure.
	g.POST("/delete-data", p.GDPR.CheckDeletion)
	g.DELETE("/delete-data", p.GDPR.DeleteData)
}
