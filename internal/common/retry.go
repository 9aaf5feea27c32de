package common

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy bounds retries around calls to external stateful services.
// Pure parsing logic is never retried; neither are terminal errors.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy mirrors the bounds used around the object store and
// structured store in production.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}
}

// Retry runs fn with exponential backoff up to MaxAttempts. A terminal error
// stops retrying immediately. The last error is returned once attempts are
// exhausted so the caller's queue can redeliver the message.
func Retry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, op string, fn func(context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var err error
	delay := policy.BaseDelay
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if IsTerminal(err) {
			return err
		}
		if attempt == policy.MaxAttempts {
			break
		}
		logger.Warn("retrying external call",
			"op", op, "attempt", attempt, "delay", delay.String(), "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	logger.Error("external call failed after all attempts",
		"op", op, "attempts", policy.MaxAttempts, "error", err)
	return err
}
