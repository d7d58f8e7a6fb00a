package collect

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/throttle"
)

// Throttle tuning per platform. Stricter pairs belong to providers known to
// rate-limit aggressively.
const (
	DefaultMaxConcurrent     = 2
	DefaultInterRequestDelay = 1500 * time.Millisecond

	StrictMaxConcurrent     = 1
	StrictInterRequestDelay = 3000 * time.Millisecond
)

// ErrNoPlatforms is returned when no platform has any identifier configured.
// It is the only fatal condition and is reported before any network activity.
var ErrNoPlatforms = errors.New("no platforms configured: add at least one artifact identifier")

// ThrottleSettings is a platform's (concurrency, spacing) pair.
type ThrottleSettings struct {
	MaxConcurrent     int
	InterRequestDelay time.Duration
}

// DefaultThrottle returns the standard pair for package indexes.
func DefaultThrottle() ThrottleSettings {
	return ThrottleSettings{
		MaxConcurrent:     DefaultMaxConcurrent,
		InterRequestDelay: DefaultInterRequestDelay,
	}
}

// StrictThrottle returns the conservative pair for aggressive rate limiters
// such as source-hosting APIs.
func StrictThrottle() ThrottleSettings {
	return ThrottleSettings{
		MaxConcurrent:     StrictMaxConcurrent,
		InterRequestDelay: StrictInterRequestDelay,
	}
}

// Platform binds one source adapter to its configured identifiers and
// throttle tuning.
type Platform struct {
	Adapter   SourceAdapter
	Artifacts []string
	Throttle  ThrottleSettings
}

// FetchRecorder receives fetch observations from the orchestrator.
// Implementations must be safe for concurrent use.
type FetchRecorder interface {
	// RecordFetch receives one observation per finished artifact fetch.
	RecordFetch(ctx context.Context, platform, status string, duration time.Duration)

	// TrackInflight marks one fetch as started and returns the release
	// function invoked when it finishes.
	TrackInflight(ctx context.Context, platform string) func()
}

// Batch is the outcome of one collection pass: the flattened record stream
// plus every non-fatal failure encountered along the way.
type Batch struct {
	Records []ArtifactRecord
	Errors  []CollectionError
}

// Orchestrator turns a platform configuration into a fully-populated Batch,
// using one throttled executor invocation per platform. Platforms are
// processed independently; no single artifact or platform failure aborts the
// pass.
type Orchestrator struct {
	platforms []Platform
	retry     throttle.RetryPolicy
	logger    *slog.Logger
	tracer    trace.Tracer
	recorder  FetchRecorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRetryPolicy overrides the default retry policy for every platform.
func WithRetryPolicy(policy throttle.RetryPolicy) Option {
	return func(o *Orchestrator) { o.retry = policy }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithTracer sets the tracer used for per-platform and per-artifact spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = tracer }
}

// WithFetchRecorder sets the metrics sink for fetch observations.
func WithFetchRecorder(recorder FetchRecorder) Option {
	return func(o *Orchestrator) { o.recorder = recorder }
}

// NewOrchestrator creates an orchestrator over the given platforms.
func NewOrchestrator(platforms []Platform, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		platforms: platforms,
		retry:     throttle.DefaultRetryPolicy(),
		logger:    slog.Default(),
		tracer:    nooptrace.NewTracerProvider().Tracer("pkgpulse"),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Collect runs one batch across all configured platforms. The flattened
// output preserves configuration order within each platform, which is what
// keeps top-artifact tie-breaking reproducible. The returned error is
// ErrNoPlatforms or context cancellation; everything else lands in
// Batch.Errors.
func (o *Orchestrator) Collect(ctx context.Context) (Batch, error) {
	if !o.hasWork() {
		return Batch{}, ErrNoPlatforms
	}

	ctx, span := o.tracer.Start(ctx, "collect.batch")
	defer span.End()

	var batch Batch

	for _, platform := range o.platforms {
		if len(platform.Artifacts) == 0 {
			continue
		}

		err := o.collectPlatform(ctx, platform, &batch)
		if err != nil {
			return Batch{}, err
		}
	}

	o.logger.InfoContext(ctx, "collection batch finished",
		"records", len(batch.Records),
		"errors", len(batch.Errors),
	)

	return batch, nil
}

// collectPlatform submits one fetch operation per identifier to a throttled
// executor and folds the results into the batch. A per-identifier failure,
// after the executor's retries are exhausted, converts to a CollectionError
// instead of aborting sibling artifacts.
func (o *Orchestrator) collectPlatform(ctx context.Context, platform Platform, batch *Batch) error {
	key := platform.Adapter.Platform()

	ctx, span := o.tracer.Start(ctx, "collect.platform",
		trace.WithAttributes(
			attribute.String("platform", key),
			attribute.Int("artifacts", len(platform.Artifacts)),
		))
	defer span.End()

	executor := throttle.New[[]ArtifactRecord](platform.Throttle.MaxConcurrent, platform.Throttle.InterRequestDelay)
	executor.Retry = o.retry

	ops := make([]throttle.Op[[]ArtifactRecord], 0, len(platform.Artifacts))
	for _, id := range platform.Artifacts {
		ops = append(ops, o.buildOp(platform.Adapter, id))
	}

	o.logger.InfoContext(ctx, "platform collection started",
		"platform", key,
		"artifacts", len(ops),
		"max_concurrent", platform.Throttle.MaxConcurrent,
		"delay", platform.Throttle.InterRequestDelay,
	)

	results, err := executor.Run(ctx, ops)
	if err != nil {
		return err
	}

	// Results arrive in configuration order; errors are recorded in that
	// same order so reports stay reproducible.
	for i, result := range results {
		if result.Err != nil {
			id := platform.Artifacts[i]

			o.logger.WarnContext(ctx, "artifact fetch failed",
				"platform", key,
				"artifact", id,
				"error", result.Err,
			)

			batch.Errors = append(batch.Errors, CollectionError{
				Platform:     key,
				ArtifactName: id,
				Message:      result.Err.Error(),
			})

			continue
		}

		batch.Records = append(batch.Records, result.Value...)
	}

	return nil
}

// buildOp wraps one adapter fetch with tracing and metrics. Retry policy is
// applied by the executor, never here.
func (o *Orchestrator) buildOp(adapter SourceAdapter, id string) throttle.Op[[]ArtifactRecord] {
	platform := adapter.Platform()

	return func(ctx context.Context) ([]ArtifactRecord, error) {
		ctx, span := o.tracer.Start(ctx, "collect.fetch",
			trace.WithAttributes(
				attribute.String("platform", platform),
				attribute.String("artifact", id),
			))
		defer span.End()

		if o.recorder != nil {
			release := o.recorder.TrackInflight(ctx, platform)
			defer release()
		}

		startedAt := time.Now()

		records, err := adapter.FetchRecords(ctx, id)

		status := "ok"
		if err != nil {
			status = "error"
		}

		if o.recorder != nil {
			o.recorder.RecordFetch(ctx, platform, status, time.Since(startedAt))
		}

		return records, err
	}
}

func (o *Orchestrator) hasWork() bool {
	for _, platform := range o.platforms {
		if len(platform.Artifacts) > 0 {
			return true
		}
	}

	return false
}
