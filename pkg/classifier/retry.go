package classifier

import (
	"context"
	"math"
	"time"
)

type retryConfig struct {
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxAttempts: 3,
		baseBackoff: 500 * time.Millisecond,
		maxBackoff:  5 * time.Second,
	}
}

func retryBackoff(attempt int, cfg retryConfig) time.Duration {
	if attempt <= 0 {
		return cfg.baseBackoff
	}
	// base * 2^(attempt-1), capped.
	exp := float64(attempt - 1)
	delay := time.Duration(float64(cfg.baseBackoff) * math.Pow(2, exp))
	if delay > cfg.maxBackoff {
		return cfg.maxBackoff
	}
	return delay
}

// doWithRetry runs fn up to cfg.maxAttempts times, sleeping a capped
// exponential backoff between attempts. Only errors for which isTransient
// returns true are retried; anything else propagates immediately.
func doWithRetry(ctx context.Context, cfg retryConfig, isTransient func(error) bool, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt == cfg.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff(attempt, cfg)):
		}
	}
	return lastErr
}
