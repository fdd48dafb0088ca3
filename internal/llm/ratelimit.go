package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimitedClient struct {
	base    Client
	limiter *rate.Limiter
}

// WithRateLimit makes every call wait on limiter first. A nil limiter disables limiting.
func WithRateLimit(base Client, limiter *rate.Limiter) Client {
	if limiter == nil {
		return base
	}
	return rateLimitedClient{base: base, limiter: limiter}
}

// NewLimiter returns a limiter for rps calls per second, or nil when rps <= 0.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (r rateLimitedClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit wait: %w", err)
	}
	return r.base.Complete(ctx, req)
}
