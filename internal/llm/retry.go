package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"docrisk-backend/internal/shared/telemetry"
)

const (
	retryBaseDelay = 300 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

// Backoff returns the delay before retry number attempt (1-based): 300ms doubling, capped at 5s.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return delay
}

// Sleep waits d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type retryingClient struct {
	base        Client
	maxAttempts int
	sleep       func(context.Context, time.Duration) error
}

// WithRetry retries transient failures up to maxAttempts calls in total.
func WithRetry(base Client, maxAttempts int) Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return retryingClient{base: base, maxAttempts: maxAttempts, sleep: Sleep}
}

func (r retryingClient) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		out, err := r.base.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == r.maxAttempts || ctx.Err() != nil || !ShouldRetry(err) {
			break
		}
		telemetry.Warn("llm.retry", map[string]any{
			"stage":   req.Stage,
			"attempt": attempt,
			"error":   sanitizeError(err),
		})
		if err := r.sleep(ctx, Backoff(attempt)); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

// ShouldRetry reports whether err looks transient: timeouts, 5xx, 429 and dropped connections.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNotImplemented) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "overloaded") {
		return true
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "eof") {
		return true
	}
	return false
}

func sanitizeError(err error) string {
	msg := strings.TrimSpace(err.Error())
	msg = strings.ReplaceAll(msg, "\n", " ")
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
