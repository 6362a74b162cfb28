package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Returns {count, pttl}.  A key never lives without a TTL.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return { count, ttl }
`)

// Redis keeps counters in Redis so the limit holds across all instances.
type Redis struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedis returns a limiter storing counters under prefix.
func NewRedis(rdb *redis.Client, prefix string, limit int, win time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, limit: limit, window: win}
}

func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	vals, err := fixedWindowScript.Run(ctx, r.rdb, []string{r.prefix + ":" + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("ratelimit: unexpected script reply %v", vals)
	}
	return result(r.limit, vals[0], time.Duration(vals[1])*time.Millisecond), nil
}
