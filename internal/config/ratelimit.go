package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig describes the fixed-window limiter guarding the
// reservation and GDPR endpoints.  Backend selects where counters live:
// "redis" shares them across instances, "memory" keeps them per process.
type RateLimitConfig struct {
    Enabled  bool
    Limit    int
    Window   time.Duration
    Backend  string
    Prefix   string
    MaxKeys  int
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Limit:   envInt("RATE_LIMIT_MAX", 5),
        Window:  envDur("RATE_LIMIT_WINDOW", 15*time.Minute),
        Backend: envStr("RATE_LIMIT_BACKEND", "redis"),
        Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
        MaxKeys: envInt("RATE_LIMIT_MAX_KEYS", 10000),
    }
    if def.Limit < 1 { def.Limit = 1 }
    if def.Window <= 0 { def.Window = 15 * time.Minute }
    if def.MaxKeys < 1 { def.MaxKeys = 10000 }
    if def.Backend != "memory" { def.Backend = "redis" }
    return def
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
