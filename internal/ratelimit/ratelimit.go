// Package ratelimit implements the fixed-window request limiter used on the
// reservation and GDPR endpoints.  A window opens with the first hit for a
// key and lasts Window; up to Limit hits pass inside it, after which the key
// is blocked until the window expires and the counter starts over.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // zero when allowed
}

// Limiter counts hits per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func result(limit int, count int64, ttl time.Duration) Result {
	r := Result{Limit: limit, Allowed: count <= int64(limit)}
	if rem := int64(limit) - count; rem > 0 {
		r.Remaining = int(rem)
	}
	if !r.Allowed {
		if ttl <= 0 {
			ttl = time.Second
		}
		r.RetryAfter = ttl
	}
	return r
}
