// Package boards is the only path from application code to the board service.
// Every call passes the dual rate-limit gate, then the backoff executor, then
// the HTTP client.
package boards

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/boardsync/pkg/backoff"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/metrics"
	"github.com/angelmondragon/boardsync/pkg/ratelimit"
	"github.com/angelmondragon/boardsync/pkg/trello"
)

type GatewayParams struct {
	Client  *trello.Client
	Gate    *ratelimit.Gate
	Policy  backoff.Policy
	Metrics *metrics.BoardMetrics
	Logger  *logger.Logger
}

type Gateway struct {
	client  *trello.Client
	gate    *ratelimit.Gate
	policy  backoff.Policy
	metrics *metrics.BoardMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewGateway wires the board gateway. Metrics and Logger are optional.
func NewGateway(params GatewayParams) (*Gateway, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trello client required")
	}
	if params.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rate limit gate required")
	}
	return &Gateway{
		client:  params.Client,
		gate:    params.Gate,
		policy:  params.Policy,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

func call[T any](ctx context.Context, g *Gateway, op string, creds trello.Credentials, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if creds.Token == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "board service token required")
	}
	if err := g.gate.Allow(g.client.APIKey(), creds.Token); err != nil {
		g.metrics.ObserveCall(op, metrics.OutcomeRateLimited, 0)
		g.warn(ctx, "boards.gate.rejected", op, map[string]any{"retry_after": retryAfterOf(err)})
		return zero, err
	}

	policy := g.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		g.metrics.IncRetry(op)
		g.warn(ctx, "boards.call.retry", op, map[string]any{
			"attempt":  attempt + 1,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
	}

	start := g.now()
	out, err := backoff.Execute(ctx, policy, fn)
	elapsed := g.now().Sub(start)
	if err != nil {
		mapped := translate(err)
		outcome := metrics.OutcomeError
		if pkgerrors.IsCode(mapped, pkgerrors.CodeRateLimit) {
			outcome = metrics.OutcomeRateLimited
		}
		g.metrics.ObserveCall(op, outcome, elapsed)
		return zero, mapped
	}
	g.metrics.ObserveCall(op, metrics.OutcomeSuccess, elapsed)
	return out, nil
}

func exec(ctx context.Context, g *Gateway, op string, creds trello.Credentials, fn func(ctx context.Context) error) error {
	_, err := call(ctx, g, op, creds, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// translate turns client errors into typed errors the HTTP layer can render.
func translate(err error) error {
	var rl *trello.RateLimitError
	if errors.As(err, &rl) {
		return pkgerrors.RateLimited("board service rate limit exceeded", rl.RetryAfterSeconds())
	}
	var apiErr *trello.APIError
	if errors.As(err, &apiErr) {
		typed := pkgerrors.Wrap(pkgerrors.CodeExternal, err, "board service request failed")
		if apiErr.Status >= http.StatusBadRequest && apiErr.Status <= 599 {
			typed = typed.WithHTTPStatus(apiErr.Status)
		}
		return typed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeExternal, err, "board service unreachable")
}

func retryAfterOf(err error) int {
	seconds, _ := pkgerrors.RetryAfter(err)
	return seconds
}

func (g *Gateway) warn(ctx context.Context, msg, op string, fields map[string]any) {
	if g.logg == nil {
		return
	}
	fields["operation"] = op
	g.logg.Warn(g.logg.WithFields(ctx, fields), msg)
}
