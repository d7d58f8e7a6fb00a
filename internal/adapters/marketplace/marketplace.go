// Package marketplace implements the VS Code Marketplace gallery adapter:
// install/download statistics per extension via the extensionquery API.
package marketplace

import (
	"context"
	"net/http"
	"time"

	"github.com/Sumatoshi-tech/pkgpulse/internal/adapters"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
)

// PlatformKey is the stable platform identifier.
const PlatformKey = "marketplace"

// DefaultGalleryURL is the public gallery endpoint.
const DefaultGalleryURL = "https://marketplace.visualstudio.com/_apis/public/gallery/extensionquery"

// Gallery query constants.
const (
	// filterTypeExtensionName selects extensions by publisher.name.
	filterTypeExtensionName = 7

	// flagIncludeStatistics asks the gallery to attach statistics.
	flagIncludeStatistics = 256

	// apiVersion is the gallery API version header value.
	apiVersion = "3.0-preview.1"
)

// Statistic names the gallery reports.
const (
	statInstall       = "install"
	statUpdateCount   = "updateCount"
	statAverageRating = "averagerating"
)

// Adapter fetches install statistics for marketplace extensions.
type Adapter struct {
	client     *http.Client
	galleryURL string
}

// Config holds constructor inputs. Zero values select defaults.
type Config struct {
	// Client is the injected HTTP client; required.
	Client *http.Client

	// GalleryURL overrides the gallery endpoint (tests).
	GalleryURL string
}

// New creates a marketplace adapter.
func New(cfg Config) *Adapter {
	a := &Adapter{
		client:     cfg.Client,
		galleryURL: cfg.GalleryURL,
	}

	if a.client == nil {
		a.client = adapters.NewHTTPClient(adapters.DefaultTimeout)
	}

	if a.galleryURL == "" {
		a.galleryURL = DefaultGalleryURL
	}

	return a
}

// Platform implements collect.SourceAdapter.
func (a *Adapter) Platform() string { return PlatformKey }

type queryRequest struct {
	Filters []queryFilter `json:"filters"`
	Flags   int           `json:"flags"`
}

type queryFilter struct {
	Criteria []queryCriterion `json:"criteria"`
}

type queryCriterion struct {
	FilterType int    `json:"filterType"`
	Value      string `json:"value"`
}

type queryResponse struct {
	Results []struct {
		Extensions []extension `json:"extensions"`
	} `json:"results"`
}

type extension struct {
	ExtensionName string `json:"extensionName"`
	DisplayName   string `json:"displayName"`
	Publisher     struct {
		PublisherName string `json:"publisherName"`
	} `json:"publisher"`
	Versions []struct {
		Version string `json:"version"`
	} `json:"versions"`
	Statistics []struct {
		StatisticName string  `json:"statisticName"`
		Value         float64 `json:"value"`
	} `json:"statistics"`
}

// FetchRecords implements collect.SourceAdapter: one total-install record
// per extension, counting installs plus updates as downloads.
func (a *Adapter) FetchRecords(ctx context.Context, id string) ([]collect.ArtifactRecord, error) {
	request := queryRequest{
		Filters: []queryFilter{{
			Criteria: []queryCriterion{{FilterType: filterTypeExtensionName, Value: id}},
		}},
		Flags: flagIncludeStatistics,
	}

	headers := map[string]string{
		"Accept": "application/json;api-version=" + apiVersion,
	}

	var response queryResponse

	err := adapters.PostJSON(ctx, a.client, a.galleryURL, headers, request, &response)
	if err != nil {
		return nil, err
	}

	ext, err := firstExtension(&response, id)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]float64, len(ext.Statistics))
	for _, stat := range ext.Statistics {
		stats[stat.StatisticName] = stat.Value
	}

	downloads := int64(stats[statInstall]) + int64(stats[statUpdateCount])

	metadata := map[string]any{
		"display_name": ext.DisplayName,
		"publisher":    ext.Publisher.PublisherName,
	}

	if len(ext.Versions) > 0 {
		metadata["version"] = ext.Versions[0].Version
	}

	if rating, ok := stats[statAverageRating]; ok {
		metadata["rating"] = rating
	}

	return []collect.ArtifactRecord{{
		Platform:      PlatformKey,
		ArtifactName:  id,
		DownloadCount: downloads,
		Timestamp:     time.Now().UTC(),
		Period:        collect.PeriodTotal,
		Metadata:      metadata,
	}}, nil
}

func firstExtension(response *queryResponse, id string) (*extension, error) {
	if len(response.Results) == 0 || len(response.Results[0].Extensions) == 0 {
		return nil, &collect.FetchError{
			Kind:    collect.FetchErrorParse,
			Message: "extension not found: " + id,
		}
	}

	return &response.Results[0].Extensions[0], nil
}
