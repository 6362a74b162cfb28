package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/kita-magazine-reservation/internal/metrics"
)

func realIP(t *testing.T, e *echo.Echo, remote string, hdr map[string]string) string {
	t.Helper()
	e.GET("/ip", func(c echo.Context) error { return c.String(http.StatusOK, c.RealIP()) })
	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = remote
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRealIP_IgnoresClientHeadersWithoutProxies(t *testing.T) {
	e := New(zerolog.Nop(), metrics.New(), []string{"*"}, nil)
	got := realIP(t, e, "192.0.2.7:4000", map[string]string{
		echo.HeaderXRealIP:       "203.0.113.1",
		echo.HeaderXForwardedFor: "203.0.113.2",
	})
	assert.Equal(t, "192.0.2.7", got)
}

func TestRealIP_TrustedProxyForwards(t *testing.T) {
	e := New(zerolog.Nop(), metrics.New(), []string{"*"}, []string{"10.0.0.0/8", "not-an-ip"})
	got := realIP(t, e, "10.1.2.3:4000", map[string]string{echo.HeaderXForwardedFor: "203.0.113.9"})
	assert.Equal(t, "203.0.113.9", got)
}

func TestRealIP_UntrustedPeerCannotForward(t *testing.T) {
	e := New(zerolog.Nop(), metrics.New(), []string{"*"}, []string{"10.0.0.1"})
	got := realIP(t, e, "192.0.2.8:4000", map[string]string{echo.HeaderXForwardedFor: "203.0.113.9"})
	assert.Equal(t, "192.0.2.8", got)

	// loopback is not trusted implicitly
	got = realIP(t, New(zerolog.Nop(), metrics.New(), []string{"*"}, []string{"10.0.0.1"}),
		"127.0.0.1:4000", map[string]string{echo.HeaderXForwardedFor: "203.0.113.9"})
	assert.Equal(t, "127.0.0.1", got)
}

func TestParseProxy(t *testing.T) {
	n, err := parseProxy("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1/32", n.String())

	n, err = parseProxy("2001:db8::1")
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1/128", n.String())

	n, err = parseProxy("172.16.0.0/12")
	require.NoError(t, err)
	assert.Equal(t, "172.16.0.0/12", n.String())

	_, err = parseProxy("proxy.local")
	assert.Error(t, err)
}
