package llm

import (
	"context"
	"time"

	"docrisk-backend/internal/shared/metrics"
	"docrisk-backend/internal/shared/telemetry"
)

type instrumentedClient struct {
	base     Client
	provider string
	timeout  time.Duration
}

// Instrument bounds each call by timeout and records call metrics. It sits
// under WithRetry so every attempt is counted and timed separately.
func Instrument(base Client, provider string, timeout time.Duration) Client {
	return instrumentedClient{base: base, provider: provider, timeout: timeout}
}

func (c instrumentedClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	metrics.IncLLMCall(req.Stage)
	out, err := c.base.Complete(ctx, req)
	if err != nil {
		metrics.IncLLMError(req.Stage)
		telemetry.Debug("llm.call_failed", map[string]any{
			"stage":       req.Stage,
			"provider":    c.provider,
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       sanitizeError(err),
		})
		return "", err
	}
	telemetry.Debug("llm.call", map[string]any{
		"stage":       req.Stage,
		"provider":    c.provider,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return out, nil
}

// Options configures Wrap.
type Options struct {
	Provider    string
	CallTimeout time.Duration
	MaxAttempts int
	RPS         float64
	Burst       int
}

// Stack is a provider client under the standard wrappers. Both clients share
// one rate limiter.
type Stack struct {
	// Limited bounds and counts each call but never retries.
	Limited Client
	// Retrying adds retries of transient failures on top of Limited.
	Retrying Client
}

// Wrap applies the standard client stack: per-call timeout and metrics, a shared
// rate limiter, then retries of transient failures.
func Wrap(base Client, opts Options) Stack {
	c := Instrument(base, opts.Provider, opts.CallTimeout)
	c = WithRateLimit(c, NewLimiter(opts.RPS, opts.Burst))
	return Stack{Limited: c, Retrying: WithRetry(c, opts.MaxAttempts)}
}
