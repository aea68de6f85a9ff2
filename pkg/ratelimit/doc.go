// Package ratelimit puts a ceiling on the PubMed request rate.
//
// The crawler already pauses a random 10-350ms between requests; the
// limiter guarantees the average rate never exceeds the configured
// requests per second even when those pauses are short.
//
//	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
