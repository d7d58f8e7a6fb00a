// Package rangefetch retrieves long historical time series from providers
// whose API caps the span of a single request, by walking the range in
// provider-sized windows and concatenating the chunks.
package rangefetch

import (
	"context"
	"fmt"
	"time"
)

// DefaultWindowDays is the widest span the npm downloads API accepts for a
// single range request.
const DefaultWindowDays = 540

// DayCount is one day's download total inside a fetched series.
type DayCount struct {
	// Day is the bucket date in the provider's YYYY-MM-DD form.
	Day string `json:"day"`

	// Downloads is the count for that day.
	Downloads int64 `json:"downloads"`
}

// ChunkFetcher fetches one bounded window [from, to] (inclusive) of the
// series. Both bounds fall inside the provider's span cap.
type ChunkFetcher func(ctx context.Context, from, to time.Time) ([]DayCount, error)

// Fetcher walks an unbounded historical range in provider-bounded windows.
type Fetcher struct {
	// WindowDays is the provider's maximum span per request.
	WindowDays int

	// Fetch retrieves a single window.
	Fetch ChunkFetcher

	// Now is swapped by tests; defaults to time.Now.
	Now func() time.Time
}

// New creates a fetcher with the default window size.
func New(fetch ChunkFetcher) *Fetcher {
	return &Fetcher{
		WindowDays: DefaultWindowDays,
		Fetch:      fetch,
		Now:        time.Now,
	}
}

// FetchSince retrieves the full series from since (inclusive) through today,
// issuing ceil(rangeDays/WindowDays) sequential chunk requests and
// deduplicating the concatenated result by day. A since date in the future
// yields an empty series and no error; a single remaining day still issues
// one request.
func (f *Fetcher) FetchSince(ctx context.Context, since time.Time) ([]DayCount, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	windowDays := f.WindowDays
	if windowDays < 1 {
		windowDays = DefaultWindowDays
	}

	today := truncateDay(now())
	cursor := truncateDay(since)

	var series []DayCount

	for !cursor.After(today) {
		end := cursor.AddDate(0, 0, windowDays-1)
		if end.After(today) {
			end = today
		}

		chunk, err := f.Fetch(ctx, cursor, end)
		if err != nil {
			return nil, fmt.Errorf("fetch range %s..%s: %w",
				cursor.Format(time.DateOnly), end.Format(time.DateOnly), err)
		}

		series = append(series, chunk...)
		cursor = end.AddDate(0, 0, 1)
	}

	return dedupByDay(series), nil
}

// dedupByDay drops repeated day entries, keeping the last occurrence.
// Chunks do not overlap by construction; this guards against off-by-one
// duplication at window boundaries.
func dedupByDay(series []DayCount) []DayCount {
	if len(series) == 0 {
		return series
	}

	last := make(map[string]int, len(series))
	order := make([]string, 0, len(series))

	for i, dc := range series {
		if _, seen := last[dc.Day]; !seen {
			order = append(order, dc.Day)
		}

		last[dc.Day] = i
	}

	if len(order) == len(series) {
		return series
	}

	deduped := make([]DayCount, 0, len(order))
	for _, day := range order {
		deduped = append(deduped, series[last[day]])
	}

	return deduped
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
