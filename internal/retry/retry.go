// Package retry provides exponential-backoff retries for calls to external
// services.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	JitterFraction    float64
}

// DefaultConfig returns sensible defaults for retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// IsRetryable decides whether an error should trigger another attempt
type IsRetryable func(error) bool

// Do executes fn with exponential backoff until it succeeds, returns a
// non-retryable error, exhausts MaxAttempts, or ctx is cancelled.
func Do(ctx context.Context, cfg Config, fn func() error, isRetryable IsRetryable) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	}, isRetryable)
	return err
}

// DoWithResult is Do for functions that produce a value
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error), isRetryable IsRetryable) (T, error) {
	var result T
	var err error
	backoff := cfg.InitialBackoff

	for attempt := 1; ; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if !isRetryable(err) || attempt >= cfg.MaxAttempts {
			return result, err
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(withJitter(backoff, cfg.JitterFraction)):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}

// withJitter spreads the sleep by up to ±fraction to avoid thundering herds
func withJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * fraction * float64(d)
	return time.Duration(float64(d) + delta)
}
