package github_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pkgpulse/internal/adapters/github"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
)

const repoJSON = `{
	"full_name": "org/repo-b",
	"stargazers_count": 1200,
	"forks_count": 34,
	"language": "Go"
}`

const releasesJSON = `[
	{
		"tag_name": "v1.1.0",
		"published_at": "2026-04-01T10:00:00Z",
		"assets": [
			{"name": "repo-b_linux_amd64.tar.gz", "download_count": 30},
			{"name": "repo-b_darwin_arm64.tar.gz", "download_count": 10}
		]
	},
	{
		"tag_name": "v1.0.0",
		"published_at": "2026-01-01T10:00:00Z",
		"assets": [
			{"name": "repo-b_linux_amd64.tar.gz", "download_count": 10}
		]
	}
]`

func newAPIServer(t *testing.T, releases string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))

		switch r.URL.Path {
		case "/repos/org/repo-b":
			_, _ = w.Write([]byte(repoJSON))
		case "/repos/org/repo-b/releases":
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			_, _ = w.Write([]byte(releases))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestFetchRecordsPerRelease(t *testing.T) {
	t.Parallel()

	server := newAPIServer(t, releasesJSON)

	adapter := github.New(github.Config{Client: server.Client(), APIURL: server.URL})

	assert.Equal(t, "github", adapter.Platform())

	records, err := adapter.FetchRecords(context.Background(), "org/repo-b")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// One record per release, summing that release's asset counts.
	assert.Equal(t, int64(40), records[0].DownloadCount)
	assert.Equal(t, "v1.1.0", records[0].Metadata["tag"])
	assert.Equal(t, 2, records[0].Metadata["assets"])

	assert.Equal(t, int64(10), records[1].DownloadCount)
	assert.Equal(t, "v1.0.0", records[1].Metadata["tag"])

	for _, rec := range records {
		assert.Equal(t, "github", rec.Platform)
		assert.Equal(t, "org/repo-b", rec.ArtifactName)
		assert.Equal(t, collect.PeriodTotal, rec.Period)
		assert.Equal(t, int64(1200), rec.Metadata["stars"])
		assert.Equal(t, "Go", rec.Metadata["language"])
	}
}

func TestFetchRecordsNoReleases(t *testing.T) {
	t.Parallel()

	server := newAPIServer(t, "[]")

	adapter := github.New(github.Config{Client: server.Client(), APIURL: server.URL})

	records, err := adapter.FetchRecords(context.Background(), "org/repo-b")
	require.NoError(t, err)

	// The artifact still appears, with zero downloads.
	require.Len(t, records, 1)
	assert.Zero(t, records[0].DownloadCount)
	assert.Equal(t, int64(1200), records[0].Metadata["stars"])
}

func TestFetchRecordsSendsToken(t *testing.T) {
	t.Parallel()

	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")

		if r.URL.Path == "/repos/org/repo-b" {
			_, _ = w.Write([]byte(repoJSON))

			return
		}

		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(server.Close)

	adapter := github.New(github.Config{Client: server.Client(), APIURL: server.URL, Token: "ghp_secret"})

	_, err := adapter.FetchRecords(context.Background(), "org/repo-b")
	require.NoError(t, err)

	assert.Equal(t, "Bearer ghp_secret", authHeader)
}

func TestFetchRecordsRateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	t.Cleanup(server.Close)

	adapter := github.New(github.Config{Client: server.Client(), APIURL: server.URL})

	_, err := adapter.FetchRecords(context.Background(), "org/repo-b")
	require.Error(t, err)

	// Rate-limit failures stay classified for the executor's retry policy.
	assert.True(t, collect.IsRetryable(err))
}
