package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mjovanovic/fitlog/pkg"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 100 * time.Millisecond
)

// RetryPolicy drives the bounded-retry-with-backoff loop around the
// upsert transaction. Only errors matching Retryable are retried; all
// others abort immediately. After MaxAttempts the last error surfaces
// to the caller.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries write conflicts up to 3 times with
// exponential backoff: 100ms, 200ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		Backoff:     ExponentialBackoff(defaultInitialBackoff),
		Retryable:   IsWriteConflict,
	}
}

// ExponentialBackoff doubles the initial delay on every subsequent
// attempt: initial, 2*initial, 4*initial, ...
func ExponentialBackoff(initial time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return initial << (attempt - 1)
	}
}

// Do runs op up to MaxAttempts times, sleeping Backoff(attempt) between
// retryable failures. Context cancellation during the backoff wait stops
// the loop with the context error.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		backoffTimer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			backoffTimer.Stop()
			return ctx.Err()
		case <-backoffTimer.C:
		}
	}
	return lastErr
}

// IsWriteConflict reports whether err is attributable to concurrent
// modification of the same transactional scope: a stale optimistic
// version write, a Postgres serialization failure, a deadlock, or a
// unique violation from two inserts racing on the same event.
func IsWriteConflict(err error) bool {
	if errors.Is(err, ErrVersionConflict) {
		return true
	}
	// the retried transaction sees the winner's event and reports a duplicate
	if errors.Is(err, ErrEventExists) {
		return true
	}
	if pkg.IsUniqueViolationError(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
