package npm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pkgpulse/internal/adapters/npm"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
)

func newRegistryServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pkg-a", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"name": "pkg-a",
			"description": "test package",
			"dist-tags": {"latest": "2.1.0"},
			"author": {"name": "someone"}
		}`))
	}))
	t.Cleanup(server.Close)

	return server
}

func newDownloadsServer(t *testing.T, series map[string][]map[string]any) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Path shape: /downloads/range/{from}:{to}/{pkg}
		require.True(t, strings.HasPrefix(r.URL.Path, "/downloads/range/"), r.URL.Path)

		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/downloads/range/"), "/")
		require.Len(t, parts, 2)

		rangeKey := parts[0]
		downloads, ok := series[rangeKey]
		require.True(t, ok, "unexpected range %s", rangeKey)

		payload := map[string]any{"downloads": downloads, "package": parts[1]}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestFetchRecordsDailySeries(t *testing.T) {
	t.Parallel()

	registry := newRegistryServer(t)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -1)

	dayFmt := func(t time.Time) string { return t.Format(time.DateOnly) }
	rangeKey := fmt.Sprintf("%s:%s", dayFmt(since), dayFmt(today))

	downloads := newDownloadsServer(t, map[string][]map[string]any{
		rangeKey: {
			{"day": dayFmt(since), "downloads": 40},
			{"day": dayFmt(today), "downloads": 60},
		},
	})

	adapter := npm.New(npm.Config{
		Client:       registry.Client(),
		RegistryURL:  registry.URL,
		DownloadsURL: downloads.URL,
		Since:        since,
	})

	assert.Equal(t, "npm", adapter.Platform())

	records, err := adapter.FetchRecords(context.Background(), "pkg-a")
	require.NoError(t, err)
	require.Len(t, records, 2)

	var total int64
	for _, rec := range records {
		assert.Equal(t, "npm", rec.Platform)
		assert.Equal(t, "pkg-a", rec.ArtifactName)
		assert.Equal(t, collect.PeriodDaily, rec.Period)
		assert.Equal(t, "2.1.0", rec.Metadata["version"])
		assert.Equal(t, "someone", rec.Metadata["author"])

		total += rec.DownloadCount
	}

	assert.Equal(t, int64(100), total)
	assert.True(t, records[0].Timestamp.Equal(since))

	// Each record owns its metadata map; mutating one leaves siblings intact.
	records[0].Metadata["version"] = "mutated"
	assert.Equal(t, "2.1.0", records[1].Metadata["version"])
}

func TestFetchRecordsMetaFailure(t *testing.T) {
	t.Parallel()

	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not found"}`))
	}))
	t.Cleanup(registry.Close)

	adapter := npm.New(npm.Config{
		Client:      registry.Client(),
		RegistryURL: registry.URL,
	})

	_, err := adapter.FetchRecords(context.Background(), "missing-pkg")
	require.Error(t, err)

	var fetchErr *collect.FetchError

	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestFetchRecordsScopedPackageEscaped(t *testing.T) {
	t.Parallel()

	var requestedPath string

	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"name":"@scope/pkg","dist-tags":{}}`))
	}))
	t.Cleanup(registry.Close)

	today := time.Now().UTC().Truncate(24 * time.Hour)

	downloads := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"downloads":[],"package":"@scope/pkg"}`))
	}))
	t.Cleanup(downloads.Close)

	adapter := npm.New(npm.Config{
		Client:       registry.Client(),
		RegistryURL:  registry.URL,
		DownloadsURL: downloads.URL,
		Since:        today,
	})

	records, err := adapter.FetchRecords(context.Background(), "@scope/pkg")
	require.NoError(t, err)
	assert.Empty(t, records)

	// The slash in a scoped name must be percent-encoded.
	assert.Equal(t, "/@scope%2Fpkg", requestedPath)
}
