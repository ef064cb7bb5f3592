package ratelimit

import (
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
)

// RejectionRecorder observes gate rejections, keyed by limiter name.
type RejectionRecorder interface {
	RateLimitRejected(limiter string)
}

// Gate requires both the shared API-key limiter and the per-token limiter to
// admit a call.
type Gate struct {
	apiKey   *Limiter
	token    *Limiter
	recorder RejectionRecorder
}

// NewGate pairs the two limiters. recorder may be nil.
func NewGate(apiKey, token *Limiter, recorder RejectionRecorder) *Gate {
	return &Gate{apiKey: apiKey, token: token, recorder: recorder}
}

// Allow admits a call only when both limiters do and returns a rate-limit
// error carrying the longer retry-after otherwise. A rejected call is not
// counted against either limiter.
func (g *Gate) Allow(apiKey, token string) error {
	tokenDecision := g.token.Check(token)
	if !tokenDecision.Allowed {
		return g.reject(g.apiKey.Peek(apiKey), tokenDecision)
	}

	keyDecision := g.apiKey.Check(apiKey)
	if !keyDecision.Allowed {
		g.token.Release(token)
		return g.reject(keyDecision, tokenDecision)
	}
	return nil
}

func (g *Gate) reject(keyDecision, tokenDecision Decision) error {
	retryAfter := keyDecision.RetryAfter
	if tokenDecision.RetryAfter > retryAfter {
		retryAfter = tokenDecision.RetryAfter
	}

	if g.recorder != nil {
		if !keyDecision.Allowed {
			g.recorder.RateLimitRejected(g.apiKey.Name())
		}
		if !tokenDecision.Allowed {
			g.recorder.RateLimitRejected(g.token.Name())
		}
	}

	return pkgerrors.RateLimited("board service rate limit exceeded", retryAfter)
}

// Limiters exposes both limiters so the caller can schedule sweeps.
func (g *Gate) Limiters() []*Limiter {
	return []*Limiter{g.apiKey, g.token}
}
