// Package retry provides the retry policy shared by listing and detail fetches,
// and the context-aware sleep used for polite pacing.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy defines retry behavior for one call site.
type Policy struct {
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts" validate:"min=1,max=10"`
	Delay             time.Duration `yaml:"delay" json:"delay" validate:"min=0"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier" validate:"min=0"`
	MaxDelay          time.Duration `yaml:"max_delay" json:"max_delay" validate:"min=0"`
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Fixed returns a policy with a constant delay between attempts.
func Fixed(attempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: attempts, Delay: delay, BackoffMultiplier: 1}
}

// Once returns a policy that never retries.
func Once() Policy {
	return Policy{MaxAttempts: 1}
}

// DelayFor returns the wait before the given attempt (1-based). The first attempt never waits.
func (p Policy) DelayFor(attempt int) time.Duration {
	if attempt <= 1 || p.Delay <= 0 {
		return 0
	}

	delay := float64(p.Delay)
	if p.BackoffMultiplier > 1 {
		for i := 2; i < attempt; i++ {
			delay *= p.BackoffMultiplier
		}
	}

	// Cap at max delay
	if p.MaxDelay > 0 && time.Duration(delay) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// AttemptError is returned when every attempt failed.
type AttemptError struct {
	Attempts int
	Cause    error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("failed after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *AttemptError) Unwrap() error {
	return e.Cause
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs fn until it succeeds, returns a permanent error, or the policy is exhausted.
// sleep may be nil, in which case Sleep is used.
func (p Policy) Do(ctx context.Context, sleep SleepFunc, fn func(ctx context.Context, attempt int) error) error {
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	max := p.attempts()
	for attempt := 1; attempt <= max; attempt++ {
		if d := p.DelayFor(attempt); d > 0 {
			if err := sleep(ctx, d); err != nil {
				return err
			}
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return &AttemptError{Attempts: max, Cause: lastErr}
}

// Sleep waits for d, returning early with ctx.Err() if ctx is done.
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

// NoSleep returns immediately. Tests use it to skip pacing.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
