package retry

import (
	"context"
	"math/rand"
	"time"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay before the given attempt's successor
	NextDelay(attempt int) time.Duration
	// Reset resets the backoff strategy to initial state
	Reset()
}

// UniformJitter waits a random duration drawn uniformly from [Min, Max]
// regardless of the attempt number.
type UniformJitter struct {
	Min time.Duration
	Max time.Duration
}

// NewUniformJitter returns a jitter backoff, swapping bounds given in the wrong order
func NewUniformJitter(min, max time.Duration) *UniformJitter {
	if max < min {
		min, max = max, min
	}
	return &UniformJitter{Min: min, Max: max}
}

// NextDelay returns a random delay within the configured bounds
func (u *UniformJitter) NextDelay(attempt int) time.Duration {
	if u.Max <= u.Min {
		return u.Min
	}
	return u.Min + time.Duration(rand.Int63n(int64(u.Max-u.Min)+1))
}

// Reset is a no-op; the jitter keeps no state
func (u *UniformJitter) Reset() {}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
