package handler // declare the package name; contains HTTP handlers

import (
    "context"  // bounded pings
    "net/http" // net/http provides status codes and response helpers
    "time"     // timestamps and timeouts

    "github.com/labstack/echo/v4"     // echo is the web framework used for this project
    "github.com/redis/go-redis/v9"    // optional Redis dependency
)

// Pinger is satisfied by *database.DB and *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// HealthHandler reports which external services are configured and whether
// the reachable ones answer.
type HealthHandler struct {
    DB                 Pinger        // nil when the database could not be opened
    Redis              *redis.Client // nil when Redis is not configured or unreachable
    DatabaseConfigured bool
    RedisConfigured    bool
    SMTPConfigured     bool
    RabbitConfigured   bool
}

// Live is the liveness probe used by load balancers.  It returns a plain
// text "ok" with status 200 as long as the process serves HTTP.
func Live(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Health handles GET /api/health.  The database is required: when it does
// not answer the status is "degraded" and the code 503.  Redis is optional
// and only reported.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    checks := echo.Map{"database": "unavailable", "redis": "disabled"}
    dbOK := false
    if h.DB != nil {
        if err := h.DB.PingContext(ctx); err == nil {
            dbOK = true
            checks["database"] = "ok"
        } else {
            checks["database"] = "error"
        }
    }
    if h.Redis != nil {
        if err := h.Redis.Ping(ctx).Err(); err == nil {
            checks["redis"] = "ok"
        } else {
            checks["redis"] = "error"
        }
    } else if h.RedisConfigured {
        checks["redis"] = "unavailable"
    }

    status, code := "ok", http.StatusOK
    if !dbOK {
        status, code = "degraded", http.StatusServiceUnavailable
    }
    return c.JSON(code, echo.Map{
        "status":    status,
        "timestamp": time.Now().UTC(),
        "config": echo.Map{
            "database": h.DatabaseConfigured,
            "smtp":     h.SMTPConfigured,
            "redis":    h.RedisConfigured,
            "rabbitmq": h.RabbitConfigured,
        },
        "checks": checks,
    })
}
