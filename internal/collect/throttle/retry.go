package throttle

import (
	"math"
	"time"
)

// Default retry policy values, tuned for public registry rate windows.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 60 * time.Second
	DefaultMultiplier = 2.0
)

// RetryPolicy decides whether and when a failed operation is re-attempted.
// All retry policy lives here; adapters never retry internally, so backoff
// timing stays centrally controlled and testable.
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the initial call.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// Multiplier grows the delay exponentially per attempt.
	Multiplier float64

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the standard policy: 3 retries, 1s base delay,
// doubling per attempt, capped at 60s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Multiplier: DefaultMultiplier,
		MaxDelay:   DefaultMaxDelay,
	}
}

// ShouldRetry reports whether attempt (0-indexed) may be retried. Only
// transient rate-limit signals qualify; validation failures, parse errors,
// and 5xx responses surface immediately.
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if attempt >= p.MaxRetries {
		return false
	}

	return IsRetryable(err)
}

// Delay returns the backoff delay for retry attempt n (0-indexed):
// min(BaseDelay × Multiplier^n, MaxDelay).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}

	return time.Duration(delay)
}
