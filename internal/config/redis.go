package config

// Redis backs the shared rate-limit counters and the magazine list cache.
// When the server cannot be reached at startup NewRedisClient returns nil;
// the limiter then falls back to per-process counters and caching is off.

import (
    "context"
    "crypto/tls"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfigured reports whether any Redis coordinates were supplied.
func RedisConfigured() bool {
    return os.Getenv("REDIS_URL") != "" || os.Getenv("REDIS_ADDR") != "" || os.Getenv("REDIS_HOST") != ""
}

// redisOptions builds client options from the environment.  REDIS_URL
// (redis:// or rediss://) wins; otherwise REDIS_HOST/REDIS_PORT or the
// REDIS_ADDR shorthand are combined with REDIS_PASSWORD, REDIS_DB and
// REDIS_TLS.
func redisOptions() (*redis.Options, error) {
    if u := os.Getenv("REDIS_URL"); u != "" {
        return redis.ParseURL(u)
    }
    addr := os.Getenv("REDIS_ADDR")
    if host := os.Getenv("REDIS_HOST"); host != "" {
        addr = host + ":" + getenv("REDIS_PORT", "6379")
    }
    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts, nil
}

// NewRedisClient connects to Redis and pings it once.  It returns nil when
// Redis is not configured, the URL is malformed or the ping fails.
func NewRedisClient() *redis.Client {
    if !RedisConfigured() {
        return nil
    }
    opts, err := redisOptions()
    if err != nil {
        return nil
    }
    // requests must not hang on a slow Redis; the limiter fails open
    opts.DialTimeout = envDur("REDIS_DIAL_TIMEOUT", 2*time.Second)
    opts.ReadTimeout = envDur("REDIS_TIMEOUT", 500*time.Millisecond)
    opts.WriteTimeout = opts.ReadTimeout

    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
