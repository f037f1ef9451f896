package retry

import (
	"context"
	"time"
)

// Policy retries an operation with exponential backoff. Only errors the
// Retryable predicate accepts are retried; everything else returns
// immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
}

// DefaultPolicy retries three times with 1s, 2s, 4s waits between
// attempts.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Retryable:   retryable,
	}
}

// Do runs fn up to MaxAttempts times. The delay before attempt n
// (zero-based) is BaseDelay * 2^n. Context cancellation aborts the wait
// and returns the context error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.BaseDelay * (1 << attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
