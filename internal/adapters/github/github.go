// Package github implements the GitHub source adapter: per-release asset
// download counts plus repository metadata, via the REST v3 API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Sumatoshi-tech/pkgpulse/internal/adapters"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
)

// PlatformKey is the stable platform identifier.
const PlatformKey = "github"

// DefaultAPIURL is the GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// releasesPerPage is the per_page value for release listing. One page is
// enough for the tracked repositories; pagination past it is deliberately
// not followed to keep the call count per artifact fixed.
const releasesPerPage = 100

// Adapter fetches release download records for GitHub repositories.
// The token is injected at construction, never read from the environment.
type Adapter struct {
	client *http.Client
	apiURL string
	token  string
}

// Config holds constructor inputs. Zero values select defaults.
type Config struct {
	// Client is the injected HTTP client; required.
	Client *http.Client

	// APIURL overrides the REST endpoint (tests).
	APIURL string

	// Token is an optional bearer token, passed through opaquely.
	Token string
}

// New creates a GitHub adapter.
func New(cfg Config) *Adapter {
	a := &Adapter{
		client: cfg.Client,
		apiURL: cfg.APIURL,
		token:  cfg.Token,
	}

	if a.client == nil {
		a.client = adapters.NewHTTPClient(adapters.DefaultTimeout)
	}

	if a.apiURL == "" {
		a.apiURL = DefaultAPIURL
	}

	return a
}

// Platform implements collect.SourceAdapter.
func (a *Adapter) Platform() string { return PlatformKey }

type repoMeta struct {
	FullName   string `json:"full_name"`
	Stargazers int64  `json:"stargazers_count"`
	Forks      int64  `json:"forks_count"`
	Language   string `json:"language"`
}

type release struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []struct {
		Name          string `json:"name"`
		DownloadCount int64  `json:"download_count"`
	} `json:"assets"`
}

// FetchRecords implements collect.SourceAdapter: one record per release,
// summing that release's asset download counts. A repository without
// releases yields a single zero-download record so the artifact still
// appears in the report.
func (a *Adapter) FetchRecords(ctx context.Context, id string) ([]collect.ArtifactRecord, error) {
	meta, err := a.fetchRepo(ctx, id)
	if err != nil {
		return nil, err
	}

	releases, err := a.fetchReleases(ctx, id)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{
		"stars":    meta.Stargazers,
		"forks":    meta.Forks,
		"language": meta.Language,
	}

	if len(releases) == 0 {
		return []collect.ArtifactRecord{{
			Platform:     PlatformKey,
			ArtifactName: id,
			Timestamp:    time.Now().UTC(),
			Period:       collect.PeriodTotal,
			Metadata:     metadata,
		}}, nil
	}

	records := make([]collect.ArtifactRecord, 0, len(releases))

	for _, rel := range releases {
		var downloads int64
		for _, asset := range rel.Assets {
			downloads += asset.DownloadCount
		}

		recordMeta := map[string]any{
			"tag":    rel.TagName,
			"assets": len(rel.Assets),
		}
		for key, value := range metadata {
			recordMeta[key] = value
		}

		records = append(records, collect.ArtifactRecord{
			Platform:      PlatformKey,
			ArtifactName:  id,
			DownloadCount: downloads,
			Timestamp:     rel.PublishedAt.UTC(),
			Period:        collect.PeriodTotal,
			Metadata:      recordMeta,
		})
	}

	return records, nil
}

func (a *Adapter) fetchRepo(ctx context.Context, id string) (*repoMeta, error) {
	var meta repoMeta

	err := adapters.GetJSON(ctx, a.client, a.apiURL+"/repos/"+id, a.headers(), &meta)
	if err != nil {
		return nil, err
	}

	return &meta, nil
}

func (a *Adapter) fetchReleases(ctx context.Context, id string) ([]release, error) {
	var releases []release

	endpoint := fmt.Sprintf("%s/repos/%s/releases?per_page=%d", a.apiURL, id, releasesPerPage)

	err := adapters.GetJSON(ctx, a.client, endpoint, a.headers(), &releases)
	if err != nil {
		return nil, err
	}

	return releases, nil
}

func (a *Adapter) headers() map[string]string {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}

	if a.token != "" {
		headers["Authorization"] = "Bearer " + a.token
	}

	return headers
}
