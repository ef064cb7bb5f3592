// Package ratelimit gates outbound board-service calls with in-memory
// fixed-window counters.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed bool
	// RetryAfter is whole seconds until the window resets; zero when allowed.
	RetryAfter int
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key inside a fixed window.
type Limiter struct {
	name   string
	window time.Duration
	max    int
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*window
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New builds a limiter allowing max requests per key in each window.
func New(name string, size time.Duration, max int, opts ...Option) *Limiter {
	l := &Limiter{
		name:    name,
		window:  size,
		max:     max,
		now:     time.Now,
		entries: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name identifies the limiter in logs and metrics.
func (l *Limiter) Name() string {
	return l.name
}

// Check counts one request for key. Once the key is at the limit, further
// calls are rejected without incrementing until the window resets.
func (l *Limiter) Check(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		l.entries[key] = &window{count: 1, resetAt: now.Add(l.window)}
		return Decision{Allowed: true}
	}

	if entry.count >= l.max {
		return Decision{Allowed: false, RetryAfter: secondsUntil(now, entry.resetAt)}
	}

	entry.count++
	return Decision{Allowed: true}
}

// Peek reports what Check would decide for key without counting a request.
func (l *Limiter) Peek(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || !now.Before(entry.resetAt) || entry.count < l.max {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, RetryAfter: secondsUntil(now, entry.resetAt)}
}

// Release gives back one request counted by an admitted Check in the
// current window.
func (l *Limiter) Release(key string) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || !now.Before(entry.resetAt) || entry.count == 0 {
		return
	}
	entry.count--
}

// Sweep drops windows that have already expired and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, entry := range l.entries {
		if !now.Before(entry.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run sweeps on every tick until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func secondsUntil(now, resetAt time.Time) int {
	seconds := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
