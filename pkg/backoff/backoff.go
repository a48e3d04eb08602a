// Package backoff runs an operation under an exponential retry policy.
package backoff

import (
	"context"
	"errors"
	"math"
	"time"
)

// Policy describes how many times to try and how long to wait in between.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Unit is the base wait; the wait after failed attempt k (0-based) is
	// Unit * 2^k.
	Unit time.Duration
}

// DefaultPolicy tries three times, waiting 1s then 2s.
var DefaultPolicy = Policy{MaxAttempts: 3, Unit: time.Second}

// MaxDelay caps Delay once Unit * 2^k no longer fits in a Duration.
const MaxDelay = time.Duration(math.MaxInt64)

// Delay returns the wait that follows failed attempt k (0-based).
func (p Policy) Delay(k int) time.Duration {
	if k < 0 || p.Unit <= 0 {
		return 0
	}
	if k >= 63 || p.Unit > MaxDelay>>uint(k) {
		return MaxDelay
	}
	return p.Unit << uint(k)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-clock SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls op until it succeeds, returns a Permanent error, ctx ends, or
// the policy runs out of attempts. It returns the number of attempts made
// and the last error.
func Do(ctx context.Context, p Policy, sleep SleepFunc, op func(ctx context.Context, attempt int) error) (int, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if sleep == nil {
		sleep = Sleep
	}

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt, err
		}

		err = op(ctx, attempt)
		if err == nil {
			return attempt + 1, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return attempt + 1, perm.err
		}

		if attempt == p.MaxAttempts-1 {
			break
		}
		if sleepErr := sleep(ctx, p.Delay(attempt)); sleepErr != nil {
			return attempt + 1, err
		}
	}
	return p.MaxAttempts, err
}
