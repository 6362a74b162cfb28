package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
    for _, k := range []string{"RATE_LIMIT_ENABLED", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW", "RATE_LIMIT_BACKEND", "RATE_LIMIT_MAX_KEYS"} {
        t.Setenv(k, "")
    }
    cfg := LoadRateLimitConfig()
    assert.True(t, cfg.Enabled)
    assert.Equal(t, 5, cfg.Limit)
    assert.Equal(t, 15*time.Minute, cfg.Window)
    assert.Equal(t, "redis", cfg.Backend)
    assert.Equal(t, 10000, cfg.MaxKeys)
}

func TestLoadRateLimitConfig_Overrides(t *testing.T) {
    t.Setenv("RATE_LIMIT_ENABLED", "off")
    t.Setenv("RATE_LIMIT_MAX", "0")
    t.Setenv("RATE_LIMIT_WINDOW", "1m")
    t.Setenv("RATE_LIMIT_BACKEND", "memory")
    cfg := LoadRateLimitConfig()
    assert.False(t, cfg.Enabled)
    assert.Equal(t, 1, cfg.Limit, "limit is clamped to at least one")
    assert.Equal(t, time.Minute, cfg.Window)
    assert.Equal(t, "memory", cfg.Backend)
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("CACHE_TTL", "bogus")
    cfg := LoadCacheConfig()
    assert.True(t, cfg.Methods["GET"])
    assert.True(t, cfg.Methods["HEAD"])
    assert.Equal(t, 30*time.Second, cfg.TTL)
    assert.Equal(t, CacheKeyRouteQuery, cfg.KeyStrategy)

    t.Setenv("CACHE_KEY_STRATEGY", "Method_Route")
    t.Setenv("CACHE_ENABLED", "no")
    cfg = LoadCacheConfig()
    assert.Equal(t, CacheKeyMethodRoute, cfg.KeyStrategy)
    assert.False(t, cfg.Enabled)
}

func TestRedisOptions(t *testing.T) {
    t.Setenv("REDIS_URL", "")
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_HOST", "")
    t.Setenv("REDIS_DB", "2")
    opts, err := redisOptions()
    require.NoError(t, err)
    assert.Equal(t, "cache:6380", opts.Addr)
    assert.Equal(t, 2, opts.DB)
    assert.Nil(t, opts.TLSConfig)

    t.Setenv("REDIS_URL", "rediss://:pw@redis.example.org:6379/1")
    opts, err = redisOptions()
    require.NoError(t, err)
    assert.Equal(t, "redis.example.org:6379", opts.Addr)
    assert.Equal(t, "pw", opts.Password)
    assert.Equal(t, 1, opts.DB)
    assert.NotNil(t, opts.TLSConfig)
}

func TestLoadMailConfig(t *testing.T) {
    t.Setenv("SMTP_HOST", "smtp.example.org")
    t.Setenv("SMTP_PORT", "465")
    t.Setenv("SMTP_SSL", "true")
    mc, err := LoadMailConfig()
    require.NoError(t, err)
    assert.True(t, mc.Enabled())
    assert.Equal(t, 465, mc.Port)
    assert.True(t, mc.UseSSL)
    assert.Equal(t, 15*time.Second, mc.Timeout)
}

func TestConfig_DatabaseConfigured(t *testing.T) {
    assert.True(t, Config{DBDriver: "sqlite", DBPath: "x.db"}.DatabaseConfigured())
    assert.False(t, Config{DBDriver: "mysql", DBHost: "db"}.DatabaseConfigured())
    assert.True(t, Config{DBDriver: "postgres", DBHost: "db", DBName: "n", DBUser: "u"}.DatabaseConfigured())
}

func TestSplitList(t *testing.T) {
    assert.Equal(t, []string{"https://a.de", "https://b.de"}, splitList(" https://a.de , ,https://b.de"))
}
