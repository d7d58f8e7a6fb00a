// Package npm implements the npm registry source adapter. Historical daily
// download series come from the npm downloads API, whose single-request span
// cap is bridged by the chunked range fetcher.
package npm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Sumatoshi-tech/pkgpulse/internal/adapters"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/rangefetch"
)

// PlatformKey is the stable platform identifier.
const PlatformKey = "npm"

// Default endpoints.
const (
	DefaultRegistryURL  = "https://registry.npmjs.org"
	DefaultDownloadsURL = "https://api.npmjs.org"
)

// defaultSinceYears bounds the historical series when no since date is
// configured.
const defaultSinceYears = 2

// Adapter fetches download records for npm packages. It is stateless beyond
// its read-only configuration and safe for concurrent use.
type Adapter struct {
	client       *http.Client
	registryURL  string
	downloadsURL string
	since        time.Time
	windowDays   int
}

// Config holds constructor inputs. Zero values select defaults.
type Config struct {
	// Client is the injected HTTP client; required.
	Client *http.Client

	// RegistryURL overrides the package metadata endpoint (tests).
	RegistryURL string

	// DownloadsURL overrides the downloads endpoint (tests).
	DownloadsURL string

	// Since is the start of the historical series.
	Since time.Time

	// WindowDays overrides the provider span cap (tests).
	WindowDays int
}

// New creates an npm adapter.
func New(cfg Config) *Adapter {
	a := &Adapter{
		client:       cfg.Client,
		registryURL:  cfg.RegistryURL,
		downloadsURL: cfg.DownloadsURL,
		since:        cfg.Since,
		windowDays:   cfg.WindowDays,
	}

	if a.client == nil {
		a.client = adapters.NewHTTPClient(adapters.DefaultTimeout)
	}

	if a.registryURL == "" {
		a.registryURL = DefaultRegistryURL
	}

	if a.downloadsURL == "" {
		a.downloadsURL = DefaultDownloadsURL
	}

	if a.since.IsZero() {
		a.since = time.Now().AddDate(-defaultSinceYears, 0, 0)
	}

	if a.windowDays < 1 {
		a.windowDays = rangefetch.DefaultWindowDays
	}

	return a
}

// Platform implements collect.SourceAdapter.
func (a *Adapter) Platform() string { return PlatformKey }

// packageMeta is the slice of the registry document the adapter needs.
type packageMeta struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	DistTags    map[string]string `json:"dist-tags"`
	Author      struct {
		Name string `json:"name"`
	} `json:"author"`
}

// rangeResponse is the downloads API payload for a range request.
type rangeResponse struct {
	Downloads []rangefetch.DayCount `json:"downloads"`
	Package   string                `json:"package"`
}

// FetchRecords implements collect.SourceAdapter: one daily record per day
// bucket of the historical series, annotated with registry metadata.
func (a *Adapter) FetchRecords(ctx context.Context, id string) ([]collect.ArtifactRecord, error) {
	meta, err := a.fetchMeta(ctx, id)
	if err != nil {
		return nil, err
	}

	fetcher := rangefetch.New(a.chunkFetcher(id))
	fetcher.WindowDays = a.windowDays

	series, err := fetcher.FetchSince(ctx, a.since)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{
		"version":     meta.DistTags["latest"],
		"description": meta.Description,
	}
	if meta.Author.Name != "" {
		metadata["author"] = meta.Author.Name
	}

	records := make([]collect.ArtifactRecord, 0, len(series))

	for _, dc := range series {
		day, parseErr := time.Parse(time.DateOnly, dc.Day)
		if parseErr != nil {
			return nil, &collect.FetchError{
				Kind:    collect.FetchErrorParse,
				Message: fmt.Sprintf("bad day %q: %v", dc.Day, parseErr),
			}
		}

		recordMeta := make(map[string]any, len(metadata))
		for key, value := range metadata {
			recordMeta[key] = value
		}

		records = append(records, collect.ArtifactRecord{
			Platform:      PlatformKey,
			ArtifactName:  id,
			DownloadCount: dc.Downloads,
			Timestamp:     day.UTC(),
			Period:        collect.PeriodDaily,
			Metadata:      recordMeta,
		})
	}

	return records, nil
}

func (a *Adapter) fetchMeta(ctx context.Context, id string) (*packageMeta, error) {
	var meta packageMeta

	endpoint := a.registryURL + "/" + url.PathEscape(id)

	err := adapters.GetJSON(ctx, a.client, endpoint, nil, &meta)
	if err != nil {
		return nil, err
	}

	return &meta, nil
}

// chunkFetcher adapts one bounded downloads-API range request to the range
// fetcher's callback contract.
func (a *Adapter) chunkFetcher(id string) rangefetch.ChunkFetcher {
	return func(ctx context.Context, from, to time.Time) ([]rangefetch.DayCount, error) {
		endpoint := fmt.Sprintf("%s/downloads/range/%s:%s/%s",
			a.downloadsURL,
			from.Format(time.DateOnly),
			to.Format(time.DateOnly),
			url.PathEscape(id),
		)

		var resp rangeResponse

		err := adapters.GetJSON(ctx, a.client, endpoint, nil, &resp)
		if err != nil {
			return nil, err
		}

		return resp.Downloads, nil
	}
}
