package throttle

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// FetchErrorKind classifies an adapter failure for retry decisions.
type FetchErrorKind string

// Fetch error kinds.
const (
	// FetchErrorHTTP is a non-2xx HTTP response; StatusCode is set.
	FetchErrorHTTP FetchErrorKind = "http"
	// FetchErrorNetwork is a transport-level failure (dial, timeout).
	FetchErrorNetwork FetchErrorKind = "network"
	// FetchErrorParse is a malformed or unexpected response body.
	FetchErrorParse FetchErrorKind = "parse"
)

// FetchError is the failure contract between source adapters and the
// throttled executor. Adapters never retry internally; the executor uses the
// kind and status code to classify retryability centrally.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Message    string

	// RetryAfter is a provider-supplied wait hint (Retry-After header),
	// zero when absent.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Kind == FetchErrorHTTP {
		return fmt.Sprintf("fetch: http %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("fetch: %s: %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is a transient rate-limit signal.
// Retryable: HTTP 403/429, an abuse/secondary-rate-limit message, or an
// explicit Retry-After hint. Everything else (other 4xx, parse errors, 5xx)
// fails immediately.
func (e *FetchError) Retryable() bool {
	if e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests {
		return true
	}

	if e.RetryAfter > 0 {
		return true
	}

	lower := strings.ToLower(e.Message)

	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "abuse")
}

// IsRetryable reports whether err carries a transient rate-limit signal.
// Non-FetchError failures are never retried.
func IsRetryable(err error) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Retryable()
	}

	return false
}
