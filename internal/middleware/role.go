package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
    "github.com/rs/zerolog"
)

// RoleAdmin is the only role issued by the admin login.
const RoleAdmin = "ADMIN"

// MsgForbidden answers authenticated callers without an allowed role.
const MsgForbidden = "Keine Berechtigung"

// RequireRole admits callers whose JWT role (stored under "role" by
// JWTAuth) is one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]struct{}, len(roles))
    for _, r := range roles {
        allowed[r] = struct{}{}
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, _ := c.Get("role").(string)
            if _, ok := allowed[role]; !ok {
                zerolog.Ctx(c.Request().Context()).Warn().
                    Str("role", role).Str("path", c.Path()).Msg("role denied")
                return c.JSON(http.StatusForbidden, echo.Map{"error": MsgForbidden})
            }
            return next(c)
        }
    }
}
