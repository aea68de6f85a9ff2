// Package retry runs an operation until it succeeds, fails with a
// non-retryable error or runs out of attempts.
//
// The crawler uses it once per page: every transient failure (network
// error or non-200 response) is followed by a random pause and another
// attempt at the same page. When MaxAttempts consecutive attempts fail the
// returned error wraps ErrMaxAttemptsExceeded so the caller can abandon the
// term rather than the whole run.
//
//	body, err := retry.DoWithResult(func() ([]byte, error) {
//	    return client.Search(ctx, term, page)
//	}, &retry.Config{
//	    MaxAttempts: 6,
//	    Backoff:     retry.NewUniformJitter(10*time.Millisecond, 350*time.Millisecond),
//	    Context:     ctx,
//	})
package retry
