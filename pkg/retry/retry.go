// Package retry provides a bounded retry-with-delay policy for fallible
// network operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pharos-hq/pharosbot/pkg/logger"
)

// ErrNotReady is the application-level signal that an operation completed at
// the transport level but the remote side is not ready yet (for example an
// aggregator returning a sentinel status). It is always retried within the
// attempt budget.
var ErrNotReady = errors.New("operation not ready")

// ErrTimeout is returned when an operation exceeds its hard deadline.
var ErrTimeout = errors.New("operation timed out")

// Policy is a bounded retry policy. The zero value is not usable; construct
// with NewPolicy.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	logger      logger.Logger
}

// NewPolicy creates a retry policy performing at most maxAttempts attempts
// with a fixed delay between them.
func NewPolicy(maxAttempts int, delay time.Duration, log logger.Logger) *Policy {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Policy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		logger:      log,
	}
}

// Do invokes op until it succeeds or the attempt budget is exhausted.
// Both ErrNotReady signals and transport-level errors consume one attempt
// each; the delay is applied between attempts but not after the last one.
// The error from the final attempt is returned on exhaustion.
func (p *Policy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if errors.Is(lastErr, ErrNotReady) {
			p.logger.Debug("Retry %d/%d for %s: not ready", attempt, p.MaxAttempts, name)
		} else {
			p.logger.Debug("Retry %d/%d for %s failed: %v", attempt, p.MaxAttempts, name, lastErr)
		}

		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, p.MaxAttempts, lastErr)
}

// WithTimeout runs op under a hard deadline. The in-flight call is cancelled
// through its context when the deadline passes and ErrTimeout is returned.
func WithTimeout(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := op(timeoutCtx)
	if err != nil && timeoutCtx.Err() == context.DeadlineExceeded {
		return ErrTimeout
	}
	return err
}
