package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFetchesTotal    = "pkgpulse.fetches.total"
	metricFetchDuration   = "pkgpulse.fetch.duration.seconds"
	metricFetchErrors     = "pkgpulse.fetch.errors.total"
	metricInflightFetches = "pkgpulse.inflight.fetches"

	attrPlatform = "platform"
	attrStatus   = "status"

	statusError = "error"
)

// fetchBucketBoundaries covers 50ms to 5 minutes: a single registry call on
// the low end, a retried multi-chunk historical series on the high end.
var fetchBucketBoundaries = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// FetchMetrics holds the OTel instruments for artifact fetch observations.
// It satisfies the orchestrator's recorder contract.
type FetchMetrics struct {
	fetchesTotal    metric.Int64Counter
	fetchDuration   metric.Float64Histogram
	fetchErrors     metric.Int64Counter
	inflightFetches metric.Int64UpDownCounter
}

// NewFetchMetrics creates fetch metric instruments from the given meter.
func NewFetchMetrics(mt metric.Meter) (*FetchMetrics, error) {
	builder := newMetricBuilder(mt)

	fm := &FetchMetrics{
		fetchesTotal:    builder.counter(metricFetchesTotal, "Total number of artifact fetches", "{fetch}"),
		fetchDuration:   builder.histogram(metricFetchDuration, "Artifact fetch duration in seconds", "s", fetchBucketBoundaries...),
		fetchErrors:     builder.counter(metricFetchErrors, "Total number of failed artifact fetches", "{error}"),
		inflightFetches: builder.upDownCounter(metricInflightFetches, "Number of in-flight artifact fetches", "{fetch}"),
	}

	if builder.err != nil {
		return nil, builder.err
	}

	return fm, nil
}

// RecordFetch records a completed artifact fetch with its platform, status,
// and duration.
func (fm *FetchMetrics) RecordFetch(ctx context.Context, platform, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrPlatform, platform),
		attribute.String(attrStatus, status),
	)

	fm.fetchesTotal.Add(ctx, 1, attrs)
	fm.fetchDuration.Record(ctx, duration.Seconds(), attrs)

	if status == statusError {
		fm.fetchErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrPlatform, platform),
		))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (fm *FetchMetrics) TrackInflight(ctx context.Context, platform string) func() {
	attrs := metric.WithAttributes(attribute.String(attrPlatform, platform))
	fm.inflightFetches.Add(ctx, 1, attrs)

	return func() {
		fm.inflightFetches.Add(ctx, -1, attrs)
	}
}
