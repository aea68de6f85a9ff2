package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	errs "pubmedscraper/pkg/errors"
	"pubmedscraper/pkg/logger"
)

func noDelay() BackoffStrategy {
	return NewUniformJitter(0, 0)
}

func TestUniformJitter(t *testing.T) {
	backoff := NewUniformJitter(10*time.Millisecond, 350*time.Millisecond)

	seen := make(map[time.Duration]bool)
	for i := 0; i < 200; i++ {
		delay := backoff.NextDelay(i)
		if delay < 10*time.Millisecond || delay > 350*time.Millisecond {
			t.Fatalf("delay %v outside [10ms, 350ms]", delay)
		}
		seen[delay] = true
	}
	if len(seen) < 2 {
		t.Error("Expected jitter to produce different delays")
	}
}

func TestUniformJitterDegenerate(t *testing.T) {
	if d := NewUniformJitter(5*time.Millisecond, 5*time.Millisecond).NextDelay(1); d != 5*time.Millisecond {
		t.Errorf("Expected fixed 5ms delay, got %v", d)
	}

	swapped := NewUniformJitter(time.Second, time.Millisecond)
	if swapped.Min != time.Millisecond || swapped.Max != time.Second {
		t.Errorf("Expected swapped bounds, got %+v", swapped)
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errs.FromStatus(503, "https://pubmed.ncbi.nlm.nih.gov/")
		}
		return nil
	}

	err := Do(op, &Config{MaxAttempts: 6, Backoff: noDelay(), Logger: logger.NewNopLogger()})
	if err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	var retried []int
	last := errs.FromStatus(500, "https://pubmed.ncbi.nlm.nih.gov/")

	op := func() error {
		attempts++
		return last
	}

	err := Do(op, &Config{
		MaxAttempts: 6,
		Backoff:     noDelay(),
		OnRetry: func(attempt int, err error, delay time.Duration) {
			retried = append(retried, attempt)
		},
	})
	if !errors.Is(err, ErrMaxAttemptsExceeded) {
		t.Fatalf("Expected ErrMaxAttemptsExceeded, got %v", err)
	}
	if !errors.Is(err, last) {
		t.Error("Expected the last failure to be wrapped")
	}
	if attempts != 6 {
		t.Errorf("Expected 6 attempts, got %d", attempts)
	}
	// no pause after the final failure
	if len(retried) != 5 {
		t.Errorf("Expected 5 retries, got %d", len(retried))
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	parseErr := errs.New(errs.ErrorTypeParsing, "malformed document")

	op := func() error {
		attempts++
		return parseErr
	}

	err := Do(op, &Config{MaxAttempts: 5, Backoff: noDelay()})
	if err != parseErr {
		t.Errorf("Expected parse error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errs.Wrap(errs.ErrorTypeNetwork, "request failed", fmt.Errorf("connection reset"))
	}

	err := Do(op, &Config{
		MaxAttempts: 0,
		Backoff:     NewUniformJitter(time.Millisecond, 2*time.Millisecond),
		Context:     ctx,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	body, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts == 1 {
			return "", errs.FromStatus(429, "https://pubmed.ncbi.nlm.nih.gov/")
		}
		return "<pre>ok</pre>", nil
	}, &Config{MaxAttempts: 3, Backoff: noDelay()})

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if body != "<pre>ok</pre>" {
		t.Errorf("Unexpected body %q", body)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", errs.New(errs.ErrorTypeNetwork, "dial"), true},
		{"status", errs.FromStatus(404, "u"), true},
		{"parsing", errs.New(errs.ErrorTypeParsing, "bad html"), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), false},
		{"untyped", errors.New("disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("Wait(0) error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := Wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait did not return promptly on cancellation")
	}
}
