// Package collect implements the collection core: it drives many independent,
// rate-limited registry fetches concurrently, tolerates partial failures per
// artifact, and flattens the results into a single record stream.
package collect

import (
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/throttle"
)

// Period tags the time span a record's download count covers.
// It is informational only; aggregation never branches on it.
type Period string

// Period values.
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodTotal   Period = "total"
)

// ArtifactRecord is one observation of download activity for one artifact on
// one platform. Records are created by a source adapter, are immutable after
// creation, and are consumed exactly once by the aggregator.
type ArtifactRecord struct {
	// Platform is the stable lowercase platform key (e.g. "npm", "github").
	Platform string `json:"platform"`

	// ArtifactName is the registry/repository identifier as configured.
	// The core treats it as opaque.
	ArtifactName string `json:"artifact_name"`

	// DownloadCount is the quantity being aggregated. Never negative.
	DownloadCount int64 `json:"download_count"`

	// Timestamp is the point in time the record pertains to: collection time,
	// or a historical bucket date for range-based platforms.
	Timestamp time.Time `json:"timestamp"`

	// Period optionally tags the span the count covers.
	Period Period `json:"period,omitempty"`

	// Metadata carries platform-specific auxiliary fields (version, stars,
	// author). The aggregator never inspects it.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Key returns the platform-qualified artifact key. Uniqueness and ranking are
// always scoped by this key, never by name alone.
func (r ArtifactRecord) Key() string {
	return r.Platform + "/" + r.ArtifactName
}

// CollectionError records a non-fatal failure for one (platform, artifact)
// pair. It is surfaced in the final report without halting the batch.
type CollectionError struct {
	Platform     string `json:"platform"`
	ArtifactName string `json:"artifact_name"`
	Message      string `json:"message"`
}

// Error implements the error interface.
func (e *CollectionError) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Platform, e.ArtifactName, e.Message)
}

// FetchErrorKind classifies an adapter failure for retry decisions.
// It lives in the throttle package so retry classification never has to
// import the collection core; this alias preserves the collect-side name.
type FetchErrorKind = throttle.FetchErrorKind

// Fetch error kinds.
const (
	// FetchErrorHTTP is a non-2xx HTTP response; StatusCode is set.
	FetchErrorHTTP = throttle.FetchErrorHTTP
	// FetchErrorNetwork is a transport-level failure (dial, timeout).
	FetchErrorNetwork = throttle.FetchErrorNetwork
	// FetchErrorParse is a malformed or unexpected response body.
	FetchErrorParse = throttle.FetchErrorParse
)

// FetchError is the failure contract between source adapters and the
// throttled executor. Adapters never retry internally; the executor uses the
// kind and status code to classify retryability centrally.
type FetchError = throttle.FetchError

// IsRetryable reports whether err carries a transient rate-limit signal.
// Non-FetchError failures are never retried.
func IsRetryable(err error) bool {
	return throttle.IsRetryable(err)
}
