package render_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
	"github.com/Sumatoshi-tech/pkgpulse/internal/render"
)

func sampleReport() *aggregate.Report {
	return &aggregate.Report{
		GeneratedAt:     time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		TotalDownloads:  150,
		UniqueArtifacts: 2,
		Platforms:       []string{"npm", "github"},
		PlatformBreakdown: map[string]aggregate.PlatformStats{
			"npm":    {TotalDownloads: 100, UniqueArtifacts: 1, ArtifactNames: []string{"pkg-a"}},
			"github": {TotalDownloads: 50, UniqueArtifacts: 1, ArtifactNames: []string{"org/repo-b"}},
		},
		TopArtifacts: []aggregate.TopArtifact{
			{Name: "pkg-a", Platform: "npm", Downloads: 100},
			{Name: "org/repo-b", Platform: "github", Downloads: 50},
		},
		Errors: []collect.CollectionError{
			{Platform: "marketplace", ArtifactName: "pub.ext", Message: "HTTP 429"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, format := range render.Formats() {
		parsed, err := render.ParseFormat(string(format))
		require.NoError(t, err)
		assert.Equal(t, format, parsed)
	}

	_, err := render.ParseFormat("csv")
	require.Error(t, err)
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.WriteText(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Download Report")
	assert.Contains(t, out, "150")
	assert.Contains(t, out, "pkg-a")
	assert.Contains(t, out, "org/repo-b")
	assert.Contains(t, out, "marketplace/pub.ext: HTTP 429")
}

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.WriteMarkdown(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "## Download Report")
	assert.Contains(t, out, "| npm")
	assert.Contains(t, out, "**Total downloads:** 150")
	assert.Contains(t, out, "`marketplace/pub.ext`")
}

func TestWriteJSONRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.WriteJSON(&buf, sampleReport()))

	var decoded aggregate.Report

	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *sampleReport(), decoded)
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.WriteYAML(&buf, sampleReport()))
	assert.Contains(t, buf.String(), "totaldownloads: 150")
}

func TestWriteChartPage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.WriteChartPage(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "<html>")
	assert.Contains(t, out, "Top Artifacts")
	assert.Contains(t, out, "Platform Share")
}

func TestPatchReadme(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{
		"# My Project",
		"",
		render.MarkerStart,
		"stale section",
		render.MarkerEnd,
		"",
		"Footer stays.",
	}, "\n")

	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, render.PatchReadme(path, sampleReport()))

	patched, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(patched)
	assert.Contains(t, out, "# My Project")
	assert.Contains(t, out, "Footer stays.")
	assert.Contains(t, out, "## Download Report")
	assert.NotContains(t, out, "stale section")

	// Patching twice replaces the managed section, never duplicates it.
	require.NoError(t, render.PatchReadme(path, sampleReport()))

	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(again), "## Download Report"))
}

func TestPatchReadmeMissingMarkers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte("# No markers here\n"), 0o600))

	err := render.PatchReadme(path, sampleReport())
	require.ErrorIs(t, err, render.ErrMarkersNotFound)

	// File is untouched on failure.
	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "# No markers here\n", string(content))
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"report.json", "report.json.lz4"} {
		path := filepath.Join(t.TempDir(), name)

		require.NoError(t, render.WriteSnapshot(path, sampleReport()))

		loaded, err := render.ReadSnapshot(path)
		require.NoError(t, err)
		assert.Equal(t, sampleReport(), loaded)
	}

	// Compressed snapshots are not plain JSON on disk.
	path := filepath.Join(t.TempDir(), "report.json.lz4")
	require.NoError(t, render.WriteSnapshot(path, sampleReport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "total_downloads")
}
