package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"docrisk-backend/internal/shared/server/respond"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterPruneSize = 1024
)

// RateLimitRule is a token bucket: Rate tokens per second up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu      sync.Mutex
	rule    RateLimitRule
	clients map[string]*clientLimiter
	now     func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter builds a limiter for rule. now may be nil.
func NewRateLimiter(rule RateLimitRule, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		rule:    rule,
		clients: make(map[string]*clientLimiter),
		now:     now,
	}
}

// Allow takes a token for key. When none is available it returns the time until one is.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	if l == nil || l.rule.Rate <= 0 || l.rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	cl, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= limiterPruneSize {
			l.prune(now)
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.rule.Rate), l.rule.Burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now

	res := cl.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *RateLimiter) prune(now time.Time) {
	for key, cl := range l.clients {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(l.clients, key)
		}
	}
}

// RateLimit rejects requests with 429 once the client key has exhausted its bucket.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := limiter.Allow(ClientKeyFromContext(c))
		if allowed {
			c.Next()
			return
		}
		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		respond.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", gin.H{
			"retryAfterMs": retryAfterMs,
		})
	}
}
