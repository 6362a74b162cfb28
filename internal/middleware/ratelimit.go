package middleware

import (
    "math"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/kita-magazine-reservation/internal/metrics"
    "github.com/iliyamo/kita-magazine-reservation/internal/ratelimit"
)

// MsgTooManyRequests is returned with HTTP 429.
const MsgTooManyRequests = "Zu viele Anfragen. Bitte versuchen Sie es später erneut."

// RateLimit guards a route group with l.  Keys are "<scope>:ip:<client ip>"
// so different groups count separately.  When the limiter itself fails the
// request is let through and the error logged.
func RateLimit(l ratelimit.Limiter, scope string, m *metrics.Metrics) echo.MiddlewareFunc {
    if l == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            res, err := l.Allow(ctx, scope+":ip:"+c.RealIP())
            if err != nil {
                zerolog.Ctx(ctx).Error().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
                return next(c)
            }
            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
            h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
            if !res.Allowed {
                secs := int(math.Ceil(res.RetryAfter.Seconds()))
                h.Set(echo.HeaderRetryAfter, strconv.Itoa(secs))
                m.RateLimitHit(scope)
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       MsgTooManyRequests,
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}
