package resilient

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff is how long requests pause after a provider rate limit.
const DefaultBackoff = 30 * time.Second

// RateLimiter paces provider requests with a token bucket and pauses all
// requests after the provider reports a rate limit.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests with burst.
// A perSecond <= 0 disables pacing; backoff still applies.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := retryAt.Sub(r.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// Backoff pauses requests for d, or DefaultBackoff when d <= 0.
func (r *RateLimiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = DefaultBackoff
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if until := r.now().Add(d); until.After(r.retryAt) {
		r.retryAt = until
	}
}

// Allow reports whether a request could be sent now without waiting.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if r.now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
