package aggregate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
)

func rec(platform, name string, downloads int64) collect.ArtifactRecord {
	return collect.ArtifactRecord{
		Platform:      platform,
		ArtifactName:  name,
		DownloadCount: downloads,
		Timestamp:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestReduceTwoPlatformScenario(t *testing.T) {
	t.Parallel()

	records := []collect.ArtifactRecord{
		rec("npm", "pkg-a", 100),
		rec("github", "org/repo-b", 50),
	}

	report := aggregate.Reduce(records, nil)

	assert.Equal(t, int64(150), report.TotalDownloads)
	assert.Equal(t, 2, report.UniqueArtifacts)
	assert.Equal(t, []string{"npm", "github"}, report.Platforms)

	npmStats := report.PlatformBreakdown["npm"]
	assert.Equal(t, int64(100), npmStats.TotalDownloads)
	assert.Equal(t, 1, npmStats.UniqueArtifacts)
	assert.Equal(t, []string{"pkg-a"}, npmStats.ArtifactNames)

	githubStats := report.PlatformBreakdown["github"]
	assert.Equal(t, int64(50), githubStats.TotalDownloads)

	require.Len(t, report.TopArtifacts, 2)
	assert.Equal(t, aggregate.TopArtifact{Name: "pkg-a", Platform: "npm", Downloads: 100}, report.TopArtifacts[0])
	assert.Equal(t, aggregate.TopArtifact{Name: "org/repo-b", Platform: "github", Downloads: 50}, report.TopArtifacts[1])
}

func TestReduceSumsDailyBuckets(t *testing.T) {
	t.Parallel()

	records := []collect.ArtifactRecord{
		rec("npm", "pkg-a", 10),
		rec("npm", "pkg-a", 20),
		rec("npm", "pkg-a", 30),
	}

	report := aggregate.Reduce(records, nil)

	assert.Equal(t, int64(60), report.TotalDownloads)
	assert.Equal(t, 1, report.UniqueArtifacts)

	require.Len(t, report.TopArtifacts, 1)
	assert.Equal(t, int64(60), report.TopArtifacts[0].Downloads)
}

func TestReduceSumInvariant(t *testing.T) {
	t.Parallel()

	records := []collect.ArtifactRecord{
		rec("npm", "pkg-a", 7),
		rec("npm", "pkg-b", 11),
		rec("github", "org/repo-b", 13),
		rec("marketplace", "pub.ext", 17),
		rec("npm", "pkg-a", 19),
	}

	report := aggregate.Reduce(records, nil)

	var platformSum int64
	for _, platform := range report.Platforms {
		platformSum += report.PlatformBreakdown[platform].TotalDownloads
	}

	var topSum int64
	for _, artifact := range report.TopArtifacts {
		topSum += artifact.Downloads
	}

	assert.Equal(t, report.TotalDownloads, platformSum)
	assert.Equal(t, report.TotalDownloads, topSum)
}

func TestReduceDeterministic(t *testing.T) {
	t.Parallel()

	records := []collect.ArtifactRecord{
		rec("npm", "pkg-a", 50),
		rec("npm", "pkg-b", 50),
		rec("github", "org/repo-b", 50),
	}
	errs := []collect.CollectionError{
		{Platform: "marketplace", ArtifactName: "pub.ext", Message: "HTTP 429"},
	}

	first := aggregate.Reduce(records, errs)

	for range 10 {
		assert.Equal(t, first, aggregate.Reduce(records, errs))
	}
}

func TestReduceTieBreakKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	records := []collect.ArtifactRecord{
		rec("npm", "pkg-a", 50),
		rec("github", "org/repo-b", 50),
		rec("npm", "pkg-c", 70),
	}

	report := aggregate.Reduce(records, nil)

	require.Len(t, report.TopArtifacts, 3)
	assert.Equal(t, "pkg-c", report.TopArtifacts[0].Name)

	// Equal counts keep first-encountered order.
	assert.Equal(t, "pkg-a", report.TopArtifacts[1].Name)
	assert.Equal(t, "org/repo-b", report.TopArtifacts[2].Name)
}

func TestReducePlatformQualifiedKeys(t *testing.T) {
	t.Parallel()

	// The same name on two platforms is two artifacts.
	records := []collect.ArtifactRecord{
		rec("npm", "shared-name", 10),
		rec("github", "shared-name", 20),
	}

	report := aggregate.Reduce(records, nil)

	assert.Equal(t, 2, report.UniqueArtifacts)
	require.Len(t, report.TopArtifacts, 2)
	assert.Equal(t, "github", report.TopArtifacts[0].Platform)
	assert.Equal(t, "npm", report.TopArtifacts[1].Platform)
}

func TestReduceEmptyInput(t *testing.T) {
	t.Parallel()

	report := aggregate.Reduce(nil, nil)

	assert.Zero(t, report.TotalDownloads)
	assert.Zero(t, report.UniqueArtifacts)
	assert.Empty(t, report.Platforms)
	assert.Empty(t, report.TopArtifacts)
	assert.Empty(t, report.Errors)
	assert.True(t, report.GeneratedAt.IsZero())
}

func TestReduceCarriesErrors(t *testing.T) {
	t.Parallel()

	errs := []collect.CollectionError{
		{Platform: "npm", ArtifactName: "pkg-x", Message: "HTTP 429"},
		{Platform: "github", ArtifactName: "org/gone", Message: "HTTP 404"},
	}

	report := aggregate.Reduce(nil, errs)

	assert.Equal(t, errs, report.Errors)
}
