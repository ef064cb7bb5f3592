package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/boardsync/api/responses"
	"github.com/angelmondragon/boardsync/pkg/config"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
)

// LimiterStore keeps one token bucket per client address.
type LimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

type clientLimiter struct {
	lim     *rate.Limiter
	lastHit time.Time
}

func NewLimiterStore(cfg config.OAuthThrottleConfig) *LimiterStore {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LimiterStore{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Limit(cfg.PerSecond),
		burst:    cfg.Burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow spends one token from ip's bucket.
func (s *LimiterStore) Allow(ip string) bool {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	cl, ok := s.limiters[ip]
	if !ok {
		cl = &clientLimiter{lim: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[ip] = cl
	}
	cl.lastHit = now
	return cl.lim.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than the ttl and returns how many were removed.
func (s *LimiterStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, v := range s.limiters {
		if now.Sub(v.lastHit) > s.ttl {
			delete(s.limiters, k)
			removed++
		}
	}
	return removed
}

func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// Run sweeps on every tick until ctx is done.
func (s *LimiterStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Throttle rejects requests from a client address once its bucket is empty.
func Throttle(name string, store *LimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || store.limit <= 0 || store.burst <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if store.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"policy": name,
					"ip":     ip,
				})
				logg.Warn(ctx, "throttle.blocked")
			}
			responses.WriteError(ctx, nil, w, pkgerrors.RateLimited("too many requests", retryAfter(store.limit)))
		})
	}
}

func retryAfter(limit rate.Limit) int {
	if limit <= 0 || limit >= 1 {
		return 1
	}
	return int(1/float64(limit) + 0.5)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
