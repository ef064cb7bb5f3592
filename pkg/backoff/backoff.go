// Package backoff retries rate-limited calls with exponential delay.
package backoff

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Policy bounds the executor. MaxRetries is the total number of invocations.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// OnRetry is called before each sleep with the zero-based attempt that
	// just failed and the delay about to be applied.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 1 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	return p
}

// rateLimiter is implemented by transport errors that know they were throttled.
type rateLimiter interface {
	RateLimited() bool
}

// IsRateLimit reports whether err signals a rate-limit condition.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl rateLimiter
	if errors.As(err, &rl) && rl.RateLimited() {
		return true
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// Execute invokes fn, sleeping BaseDelay*2^attempt between attempts while
// fn keeps failing with a rate-limit error. Any other error is returned on
// first occurrence. Once attempts run out the last error is returned.
func Execute[T any](ctx context.Context, policy Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.normalized()

	attempt := 0
	schedule := retry.WithMaxRetries(uint64(policy.MaxRetries-1), retry.NewExponential(policy.BaseDelay))

	var lastErr error
	observed := retry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := schedule.Next()
		if !stop && policy.OnRetry != nil {
			policy.OnRetry(attempt, delay, lastErr)
		}
		attempt++
		return delay, stop
	})

	var result T
	err := retry.Do(ctx, observed, func(ctx context.Context) error {
		value, err := fn(ctx)
		if err == nil {
			result = value
			return nil
		}
		lastErr = err
		if IsRateLimit(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Do is Execute for calls with no result.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	_, err := Execute(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
