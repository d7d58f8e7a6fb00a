package collect

import "context"

// SourceAdapter is the per-platform fetch contract consumed by the
// orchestrator. Implementations perform the necessary external calls for one
// artifact identifier and return normalized records, or fail with a
// *FetchError.
//
// Adapters must not retry internally (retry policy lives in the throttled
// executor) and must hold no shared mutable state, so they are safe for
// concurrent invocation.
type SourceAdapter interface {
	// Platform returns the stable lowercase platform key.
	Platform() string

	// FetchRecords fetches all records for one artifact identifier.
	FetchRecords(ctx context.Context, id string) ([]ArtifactRecord, error)
}
