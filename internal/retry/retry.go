package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// Classifier decides whether an error is transient and worth retrying.
// Non-retryable errors (constraint violations, not-found, ...) must
// propagate to the caller unchanged after a single attempt.
type Classifier func(err error) bool

// Options control the backoff schedule for WithRetry
type Options struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   Classifier
	OnRetry     func(attempt int, err error)
}

// DefaultOptions returns the retry policy used across the data access layer
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   5 * time.Second,
		Retryable:  IsConnectionError,
	}
}

// transientSignatures are lowercase substrings of known connection-class
// failures from lib/pq, the pgx stack under GORM, and net errors
var transientSignatures = []string{
	"connection refused",
	"connection reset",
	"connection timed out",
	"i/o timeout",
	"timeout expired",
	"broken pipe",
	"database server",
	"server closed the connection",
	"no connection to the server",
	"dial tcp",
	"eof",
}

// IsConnectionError reports whether err looks like a transient
// connectivity failure rather than a semantic database error
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Do runs op up to opts.MaxRetries times, sleeping an exponentially
// growing delay between attempts: min(BaseDelay * 2^(n-2), MaxDelay)
// before attempt n. The last error is returned unwrapped so callers can
// still inspect the original cause.
func Do[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Retryable == nil {
		opts.Retryable = IsConnectionError
	}

	var lastErr error
	delay := opts.BaseDelay

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 1 {
			if opts.OnRetry != nil {
				opts.OnRetry(attempt, lastErr)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
			delay *= 2
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !opts.Retryable(err) {
			return zero, err
		}
	}

	return zero, lastErr
}

// DoVoid is Do for operations without a result value
func DoVoid(ctx context.Context, opts Options, op func(ctx context.Context) error) error {
	_, err := Do(ctx, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
