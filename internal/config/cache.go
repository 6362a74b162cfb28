package config

import (
    "os"
    "strings"
    "time"
)

// Key strategies understood by the response cache.
const (
    CacheKeyRoute            = "route"
    CacheKeyRouteQuery       = "route_query"
    CacheKeyMethodRoute      = "method_route"
    CacheKeyMethodRouteQuery = "method_route_query"
)

// CacheConfig configures the Redis response cache in front of the magazine
// list.  Entries are short-lived because available copies change with every
// reservation; writers also drop the whole prefix.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  Unknown key strategies fall
// back to route_query.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(getenv("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  strings.ToLower(getenv("CACHE_KEY_STRATEGY", CacheKeyRouteQuery)),
        Prefix:       getenv("CACHE_PREFIX", "kita:magazines"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 256<<10),
    }
    switch cfg.KeyStrategy {
    case CacheKeyRoute, CacheKeyRouteQuery, CacheKeyMethodRoute, CacheKeyMethodRouteQuery:
    default:
        cfg.KeyStrategy = CacheKeyRouteQuery
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return cfg
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
            m[p] = true
        }
    }
    return m
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}
