package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type window struct {
	count   int64
	resetAt time.Time
}

// Memory keeps counters in process.  Entries live in an expiring LRU whose
// TTL equals the window, so idle keys disappear on their own and at most
// maxKeys windows are held at once.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows *expirable.LRU[string, *window]
}

// NewMemory returns an in-process limiter.
func NewMemory(limit int, win time.Duration, maxKeys int) *Memory {
	if maxKeys < 1 {
		maxKeys = 10000
	}
	return &Memory{
		limit:   limit,
		window:  win,
		now:     time.Now,
		windows: expirable.NewLRU[string, *window](maxKeys, nil, win),
	}
}

// Allow counts a hit for key.  It never fails.
func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows.Get(key)
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.window)}
		m.windows.Add(key, w)
	}
	w.count++
	return result(m.limit, w.count, w.resetAt.Sub(now)), nil
}

// Len reports how many windows are currently held.
func (m *Memory) Len() int { return m.windows.Len() }
