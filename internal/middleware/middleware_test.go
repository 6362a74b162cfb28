package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/kita-magazine-reservation/internal/config"
    "github.com/iliyamo/kita-magazine-reservation/internal/ratelimit"
    "github.com/iliyamo/kita-magazine-reservation/internal/utils"
)

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(e *echo.Echo, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    for k, v := range hdr {
        req.Header.Set(k, v)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestRateLimit_SixthRequestGets429(t *testing.T) {
    e := echo.New()
    e.POST("/api/reservations", okHandler, RateLimit(ratelimit.NewMemory(5, 15*time.Minute, 100), "reservations", nil))

    hdr := map[string]string{echo.HeaderXRealIP: "203.0.113.7"}
    for i := 0; i < 5; i++ {
        rec := serve(e, http.MethodPost, "/api/reservations", hdr)
        require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
    }
    rec := serve(e, http.MethodPost, "/api/reservations", hdr)
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Contains(t, rec.Body.String(), "Zu viele Anfragen")
    assert.NotEmpty(t, rec.Header().Get(echo.HeaderRetryAfter))
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

    other := serve(e, http.MethodPost, "/api/reservations", map[string]string{echo.HeaderXRealIP: "203.0.113.8"})
    assert.Equal(t, http.StatusOK, other.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
    return ratelimit.Result{}, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
    e := echo.New()
    e.GET("/", okHandler, RateLimit(failingLimiter{}, "x", nil))
    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", nil).Code)
}

func TestJWTAuthAndRole(t *testing.T) {
    const secret = "test-secret"
    e := echo.New()
    e.GET("/admin", func(c echo.Context) error {
        return c.String(http.StatusOK, c.Get("subject").(string))
    }, JWTAuth(secret), RequireRole(RoleAdmin))

    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin", nil).Code)
    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin",
        map[string]string{echo.HeaderAuthorization: "Bearer nonsense"}).Code)

    tok, err := utils.NewAccessToken(secret, "admin", "PARENT", 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin",
        map[string]string{echo.HeaderAuthorization: "Bearer " + tok.Token}).Code)

    tok, err = utils.NewAccessToken(secret, "admin", RoleAdmin, 5)
    require.NoError(t, err)
    rec := serve(e, http.MethodGet, "/admin", map[string]string{echo.HeaderAuthorization: "Bearer " + tok.Token})
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "admin", rec.Body.String())

    other, err := utils.NewAccessToken("other-secret", "admin", RoleAdmin, 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin",
        map[string]string{echo.HeaderAuthorization: "Bearer " + other.Token}).Code)
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"magazines":[]}`))
    require.NoError(t, err)

    status, got, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", got.Get("Content-Type"))
    assert.Equal(t, `{"magazines":[]}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 1})
    assert.False(t, ok)
}

func TestCacheKeyFrom_Strategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/api/magazines?page=2", nil)
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/api/magazines")

    withQuery := cacheKeyFrom(config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}, c)
    routeOnly := cacheKeyFrom(config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}, c)
    assert.NotEqual(t, withQuery, routeOnly)
    assert.Regexp(t, `^cache:[0-9a-f]{40}$`, withQuery)
}

func TestResponseCache_DisabledPassesThrough(t *testing.T) {
    rc := NewRedisCache(config.CacheConfig{Enabled: true}, nil)
    e := echo.New()
    e.GET("/", okHandler, rc.Middleware())
    rec := serve(e, http.MethodGet, "/", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
    assert.NoError(t, rc.Invalidate(context.Background()))
}

func newMiniCache(t *testing.T) (*ResponseCache, *miniredis.Miniredis) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    rc := NewRedisCache(config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{http.MethodGet: true},
        TTL:          time.Minute,
        KeyStrategy:  config.CacheKeyRouteQuery,
        Prefix:       "kita:magazines",
        MaxBodyBytes: 256 << 10,
    }, rdb)
    return rc, mr
}

func TestResponseCache_HitAndInvalidate(t *testing.T) {
    rc, mr := newMiniCache(t)
    calls := 0
    e := echo.New()
    e.GET("/api/magazines", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, map[string]any{"magazines": []string{"2026/1"}, "call": calls})
    }, rc.Middleware())

    first := serve(e, http.MethodGet, "/api/magazines", nil)
    require.Equal(t, http.StatusOK, first.Code)
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
    keys := mr.Keys()
    require.Len(t, keys, 1)
    assert.Regexp(t, `^kita:magazines:`, keys[0])
    assert.Equal(t, time.Minute, mr.TTL(keys[0]))

    second := serve(e, http.MethodGet, "/api/magazines", nil)
    require.Equal(t, http.StatusOK, second.Code)
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, first.Body.String(), second.Body.String())
    assert.Contains(t, second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
    assert.Equal(t, 1, calls)

    // keys outside the prefix survive invalidation
    require.NoError(t, mr.Set("kita:rl:other", "1"))
    require.NoError(t, rc.Invalidate(context.Background()))
    assert.Equal(t, []string{"kita:rl:other"}, mr.Keys())

    third := serve(e, http.MethodGet, "/api/magazines", nil)
    assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
    assert.Equal(t, 2, calls)
    assert.NotEqual(t, first.Body.String(), third.Body.String())
}

func TestResponseCache_SkipsErrorsAndOtherMethods(t *testing.T) {
    rc, mr := newMiniCache(t)
    e := echo.New()
    e.GET("/broken", func(c echo.Context) error {
        return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "x"})
    }, rc.Middleware())
    e.POST("/api/magazines", okHandler, rc.Middleware())

    assert.Equal(t, http.StatusServiceUnavailable, serve(e, http.MethodGet, "/broken", nil).Code)
    rec := serve(e, http.MethodPost, "/api/magazines", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
    assert.Empty(t, mr.Keys())
}
