// Package commands implements the pkgpulse CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pkgpulse/internal/adapters"
	"github.com/Sumatoshi-tech/pkgpulse/internal/adapters/github"
	"github.com/Sumatoshi-tech/pkgpulse/internal/adapters/marketplace"
	"github.com/Sumatoshi-tech/pkgpulse/internal/adapters/npm"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/throttle"
	"github.com/Sumatoshi-tech/pkgpulse/internal/config"
	"github.com/Sumatoshi-tech/pkgpulse/internal/observability"
	"github.com/Sumatoshi-tech/pkgpulse/internal/render"
	"github.com/Sumatoshi-tech/pkgpulse/pkg/version"
)

const outputFileMode = 0o644

// collectOptions carries the collect command's flag values.
type collectOptions struct {
	configPath  string
	format      string
	output      string
	snapshot    string
	readme      string
	metricsAddr string
	logJSON     bool
	verbose     bool
}

// NewCollectCommand creates the collect subcommand.
func NewCollectCommand() *cobra.Command {
	var opts collectOptions

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch download metrics and render the aggregated report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default: .pkgpulse.yaml in CWD or $HOME)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(render.FormatText), "output format: text, markdown, json, yaml, plot")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write report to file instead of stdout")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "persist the report as a JSON snapshot (.lz4 suffix compresses)")
	cmd.Flags().StringVar(&opts.readme, "readme", "", "patch the marker-delimited section of this README file")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /healthz and /metrics at this address during the run")
	cmd.Flags().BoolVar(&opts.logJSON, "log-json", false, "JSON-formatted log output")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug-level logging")

	return cmd
}

func runCollect(ctx context.Context, opts *collectOptions) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	providers, err := initObservability(cfg, opts)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	slog.SetDefault(providers.Logger)

	if opts.metricsAddr != "" {
		diag, diagErr := observability.NewDiagnosticsServer(opts.metricsAddr, providers.MetricsHandler)
		if diagErr != nil {
			return fmt.Errorf("start diagnostics server: %w", diagErr)
		}

		defer func() { _ = diag.Close() }()

		providers.Logger.Info("diagnostics server listening", "addr", diag.Addr())
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := collectReport(ctx, cfg, providers)
	if err != nil {
		return err
	}

	return writeOutputs(report, format, opts)
}

func initObservability(cfg *config.Config, opts *collectOptions) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.EnablePrometheus = opts.metricsAddr != ""
	obsCfg.LogJSON = opts.logJSON

	if opts.verbose {
		obsCfg.LogLevel = slog.LevelDebug
	}

	return observability.Init(obsCfg)
}

// collectReport wires the configured adapters into the orchestrator, runs one
// batch, and reduces it into the final report.
func collectReport(ctx context.Context, cfg *config.Config, providers observability.Providers) (*aggregate.Report, error) {
	recorder, err := observability.NewFetchMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("create fetch metrics: %w", err)
	}

	orchestrator := collect.NewOrchestrator(
		buildPlatforms(cfg),
		collect.WithRetryPolicy(retryPolicy(cfg)),
		collect.WithLogger(providers.Logger),
		collect.WithTracer(providers.Tracer),
		collect.WithFetchRecorder(recorder),
	)

	batch, err := orchestrator.Collect(ctx)
	if err != nil {
		return nil, err
	}

	report := aggregate.Reduce(batch.Records, batch.Errors)
	report.GeneratedAt = time.Now().UTC()

	return &report, nil
}

// buildPlatforms constructs one Platform per configured source. Source-hosting
// APIs default to the strict throttle pair; explicit config overrides both.
func buildPlatforms(cfg *config.Config) []collect.Platform {
	client := adapters.NewHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second)

	return []collect.Platform{
		{
			Adapter: npm.New(npm.Config{
				Client: client,
				Since:  cfg.SinceTime(),
			}),
			Artifacts: cfg.Artifacts.NPM,
			Throttle:  throttleFor(cfg, npm.PlatformKey, collect.DefaultThrottle()),
		},
		{
			Adapter: github.New(github.Config{
				Client: client,
				Token:  cfg.Tokens.GitHub,
			}),
			Artifacts: cfg.Artifacts.GitHub,
			Throttle:  throttleFor(cfg, github.PlatformKey, collect.StrictThrottle()),
		},
		{
			Adapter: marketplace.New(marketplace.Config{
				Client: client,
			}),
			Artifacts: cfg.Artifacts.Marketplace,
			Throttle:  throttleFor(cfg, marketplace.PlatformKey, collect.DefaultThrottle()),
		},
	}
}

func throttleFor(cfg *config.Config, platform string, fallback collect.ThrottleSettings) collect.ThrottleSettings {
	tuned, ok := cfg.Throttle[platform]
	if !ok {
		return fallback
	}

	return collect.ThrottleSettings{
		MaxConcurrent:     tuned.MaxConcurrent,
		InterRequestDelay: time.Duration(tuned.InterRequestDelayMS) * time.Millisecond,
	}
}

func retryPolicy(cfg *config.Config) throttle.RetryPolicy {
	return throttle.RetryPolicy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
		Multiplier: cfg.Retry.Multiplier,
		MaxDelay:   time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
	}
}

// writeOutputs renders the report to its primary destination, then applies
// the optional snapshot and README side outputs.
func writeOutputs(report *aggregate.Report, format render.Format, opts *collectOptions) error {
	var w io.Writer = os.Stdout

	if opts.output != "" {
		file, err := os.OpenFile(opts.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFileMode)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}

		defer func() { _ = file.Close() }()

		w = file
	}

	err := render.Write(w, report, format)
	if err != nil {
		return err
	}

	if opts.snapshot != "" {
		snapErr := render.WriteSnapshot(opts.snapshot, report)
		if snapErr != nil {
			return snapErr
		}
	}

	if opts.readme != "" {
		readmeErr := render.PatchReadme(opts.readme, report)
		if readmeErr != nil {
			return readmeErr
		}
	}

	return nil
}
