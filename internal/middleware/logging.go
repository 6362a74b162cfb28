package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/rs/zerolog"

    "github.com/iliyamo/kita-magazine-reservation/internal/metrics"
)

// RequestLogger attaches a request-scoped logger to the context and writes
// one line per request.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    logged := echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            ev := log.Info()
            if v.Error != nil || v.Status >= 500 {
                ev = log.Error().Err(v.Error)
            }
            ev.Str("method", v.Method).
                Str("uri", v.URI).
                Int("status", v.Status).
                Dur("latency", v.Latency).
                Str("request_id", v.RequestID).
                Msg("request")
            return nil
        },
    })
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        inner := logged(next)
        return func(c echo.Context) error {
            req := c.Request()
            reqID := c.Response().Header().Get(echo.HeaderXRequestID)
            l := log.With().Str("request_id", reqID).Logger()
            c.SetRequest(req.WithContext(l.WithContext(req.Context())))
            return inner(c)
        }
    }
}

// Metrics records the duration of every request by route template.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            status := c.Response().Status
            if err != nil {
                if he, ok := err.(*echo.HTTPError); ok {
                    status = he.Code
                }
            }
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            m.ObserveRequest(c.Request().Method, route, strconv.Itoa(status), time.Since(start).Seconds())
            return err
        }
    }
}
