// Package retry implements context-aware retries with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Default retry configuration constants.
const (
	defaultMaxAttempts   = 3
	defaultInitialDelay  = 800 * time.Millisecond
	defaultMaxDelay      = 10 * time.Second
	defaultBackoffFactor = 2.0
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	MaxTotalTimeout time.Duration // zero means no overall deadline
}

// DefaultConfig returns the retry configuration used for external writes:
// three attempts with delays of 0.8s and 1.6s between them.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   defaultMaxAttempts,
		InitialDelay:  defaultInitialDelay,
		MaxDelay:      defaultMaxDelay,
		BackoffFactor: defaultBackoffFactor,
	}
}

// OnRetry is invoked after a failed attempt, before sleeping for nextDelay.
type OnRetry func(attempt int, err error, nextDelay time.Duration)

// Do executes fn with exponential backoff until it succeeds, attempts are
// exhausted, or ctx is done. The last error is always wrapped in the result.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return DoWithNotify(ctx, cfg, fn, nil)
}

// DoWithNotify behaves like Do and additionally calls notify before each sleep.
func DoWithNotify(ctx context.Context, cfg Config, fn func() error, notify OnRetry) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = defaultBackoffFactor
	}
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempt-1, ctx.Err(), lastErr)
			}
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		if notify != nil {
			notify(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempt, ctx.Err(), lastErr)
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}
