package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kita-magazine-reservation/internal/handler"
	"github.com/iliyamo/kita-magazine-reservation/internal/middleware"
)

// RegisterAdmin registers the staff endpoints.  Login is open (but rate
// limited by loginLimit when set); everything else requires a valid JWT
// with the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, h *handler.AdminHandler, jwtSecret string, loginLimit echo.MiddlewareFunc) {
	e.POST("/api/admin/login", a.Login, orPass(loginLimit))

	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	g.GET("/reservations", h.ListReservations)
	g.PATCH("/reservations/:id/status", h.UpdateReservationStatus)
	g.POST("/magazines", h.CreateMagazine)
}
