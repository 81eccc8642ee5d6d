// Package retry drives an operation across a bounded number of attempts,
// one per token of the pool.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDelay is the pause between two attempts.
const DefaultDelay = 1 * time.Second

// ErrNoAttempts is returned when the coordinator is configured with fewer than one attempt.
var ErrNoAttempts = errors.New("retry: no attempts configured")

// Attempt is passed to every invocation of the operation.
type Attempt struct {
	// Index is zero-based and selects the token used by this attempt.
	Index int
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Coordinator runs attempts sequentially and stops at the first success.
type Coordinator struct {
	maxAttempts int
	delay       time.Duration
	sleep       SleepFunc
	logger      logrus.FieldLogger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSleep replaces the function used to wait between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Coordinator) {
		c.sleep = sleep
	}
}

// New creates a Coordinator making at most maxAttempts attempts, waiting
// delay between two of them.
func New(maxAttempts int, delay time.Duration, logger logrus.FieldLogger, opts ...Option) *Coordinator {
	c := &Coordinator{
		maxAttempts: maxAttempts,
		delay:       delay,
		sleep:       sleepContext,
		logger:      logger.WithField("component", "retry"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch invokes fn with attempt indexes 0..maxAttempts-1 until one call
// succeeds. When every attempt fails the error of the last one is returned.
// Cancelling ctx during the delay aborts with an error matching both
// ctx.Err() and the last attempt's error.
func Fetch[T any](ctx context.Context, c *Coordinator, fn func(ctx context.Context, attempt Attempt) (T, error)) (T, error) {
	var zero T
	if c.maxAttempts < 1 {
		return zero, ErrNoAttempts
	}

	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		if i > 0 {
			if err := c.sleep(ctx, c.delay); err != nil {
				return zero, fmt.Errorf("%w after attempt %d: %w", err, i, lastErr)
			}
		}

		result, err := fn(ctx, Attempt{Index: i})
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.logger.WithError(err).WithFields(logrus.Fields{
			"attempt": i + 1,
			"max":     c.maxAttempts,
		}).Debug("Attempt failed")
	}

	c.logger.WithError(lastErr).WithField("attempts", c.maxAttempts).Warn("All attempts failed")
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
