package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset restores a full bucket
	Reset()
}

// RateLimiter caps the request rate with a token bucket
type RateLimiter struct {
	rps     float64
	burst   int
	limiter *rate.Limiter
	mu      sync.RWMutex
}

// New creates a limiter allowing rps requests per second with the given burst.
// A non-positive rps disables limiting.
func New(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{rps: rps, burst: burst}
	rl.limiter = newLimiter(rps, burst)
	return rl
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.limiter.Wait(ctx)
}

func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiter = newLimiter(rl.rps, rl.burst)
}
