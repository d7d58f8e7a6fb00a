// Package aggregate reduces a flat record stream into the unified download
// report. The reduction is pure and deterministic, which makes it the natural
// unit-testing boundary of the collection core.
package aggregate

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
)

// PlatformStats is the per-platform slice of the report.
type PlatformStats struct {
	// TotalDownloads is the download sum across the platform's records.
	TotalDownloads int64 `json:"total_downloads"`

	// UniqueArtifacts counts distinct artifact names on this platform.
	UniqueArtifacts int `json:"unique_artifacts"`

	// ArtifactNames lists the platform's artifacts in first-seen order.
	ArtifactNames []string `json:"artifact_names"`
}

// TopArtifact is one entry of the ranked artifact list.
type TopArtifact struct {
	Name      string `json:"name"`
	Platform  string `json:"platform"`
	Downloads int64  `json:"downloads"`
}

// Report is the terminal output of one collection batch.
type Report struct {
	// GeneratedAt is the report production time, stamped by the caller so the
	// reduction itself stays deterministic.
	GeneratedAt time.Time `json:"generated_at"`

	// TotalDownloads sums DownloadCount over every record in the batch.
	TotalDownloads int64 `json:"total_downloads"`

	// UniqueArtifacts counts distinct (platform, name) keys. A name repeating
	// across platforms counts once per platform-scoped key.
	UniqueArtifacts int `json:"unique_artifacts"`

	// Platforms lists platform keys that contributed at least one record,
	// in first-seen order.
	Platforms []string `json:"platforms"`

	// PlatformBreakdown maps platform key to its per-platform stats.
	PlatformBreakdown map[string]PlatformStats `json:"platform_breakdown"`

	// TopArtifacts ranks artifacts by cumulative downloads descending; ties
	// keep first-encountered order so output is deterministic across runs.
	TopArtifacts []TopArtifact `json:"top_artifacts"`

	// Errors lists the batch's non-fatal per-artifact failures verbatim.
	Errors []collect.CollectionError `json:"errors,omitempty"`
}

// Reduce folds records and accumulated errors into a Report. Multiple records
// per artifact (daily buckets) sum into one cumulative total. Reduce performs
// no I/O and is byte-for-byte deterministic for a fixed input.
func Reduce(records []collect.ArtifactRecord, errs []collect.CollectionError) Report {
	report := Report{
		PlatformBreakdown: make(map[string]PlatformStats),
		Errors:            errs,
	}

	// Per-key cumulative downloads, with insertion order retained for the
	// stable tie-break.
	totals := make(map[string]int64)

	var keyOrder []collect.ArtifactRecord

	for _, rec := range records {
		report.TotalDownloads += rec.DownloadCount

		stats, seen := report.PlatformBreakdown[rec.Platform]
		if !seen {
			report.Platforms = append(report.Platforms, rec.Platform)
		}

		stats.TotalDownloads += rec.DownloadCount

		key := rec.Key()
		if _, known := totals[key]; !known {
			stats.UniqueArtifacts++
			stats.ArtifactNames = append(stats.ArtifactNames, rec.ArtifactName)
			keyOrder = append(keyOrder, rec)
		}

		totals[key] += rec.DownloadCount
		report.PlatformBreakdown[rec.Platform] = stats
	}

	report.UniqueArtifacts = len(totals)
	report.TopArtifacts = rankArtifacts(keyOrder, totals)

	return report
}

// rankArtifacts sorts per-key cumulative downloads descending, stable on
// insertion order.
func rankArtifacts(keyOrder []collect.ArtifactRecord, totals map[string]int64) []TopArtifact {
	ranked := make([]TopArtifact, 0, len(keyOrder))

	for _, rec := range keyOrder {
		ranked = append(ranked, TopArtifact{
			Name:      rec.ArtifactName,
			Platform:  rec.Platform,
			Downloads: totals[rec.Key()],
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Downloads > ranked[j].Downloads
	})

	return ranked
}
