package config

import (
	"errors"
	"time"
)

// Config is the top-level configuration struct for pkgpulse.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Artifacts ArtifactsConfig           `mapstructure:"artifacts"`
	Tokens    TokensConfig              `mapstructure:"tokens"`
	Throttle  map[string]ThrottleConfig `mapstructure:"throttle"`
	Retry     RetryConfig               `mapstructure:"retry"`
	HTTP      HTTPConfig                `mapstructure:"http"`
	NPM       NPMConfig                 `mapstructure:"npm"`
	Telemetry TelemetryConfig           `mapstructure:"telemetry"`
}

// ArtifactsConfig lists the tracked identifiers per platform. A platform
// with an empty list contributes nothing and is not an error.
type ArtifactsConfig struct {
	NPM         []string `mapstructure:"npm"`
	GitHub      []string `mapstructure:"github"`
	Marketplace []string `mapstructure:"marketplace"`
}

// TokensConfig holds opaque per-platform auth tokens. Tokens are passed to
// adapter constructors; adapters never read ambient state.
type TokensConfig struct {
	GitHub string `mapstructure:"github"`
}

// ThrottleConfig is a platform's executor tuning.
type ThrottleConfig struct {
	MaxConcurrent       int `mapstructure:"max_concurrent"`
	InterRequestDelayMS int `mapstructure:"inter_request_delay_ms"`
}

// RetryConfig holds the central backoff policy knobs.
type RetryConfig struct {
	MaxRetries  int     `mapstructure:"max_retries"`
	BaseDelayMS int     `mapstructure:"base_delay_ms"`
	Multiplier  float64 `mapstructure:"multiplier"`
	MaxDelayMS  int     `mapstructure:"max_delay_ms"`
}

// HTTPConfig bounds external calls.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// NPMConfig holds npm-specific collection settings.
type NPMConfig struct {
	// Since is the start of the historical download series (YYYY-MM-DD).
	// Empty selects the adapter default.
	Since string `mapstructure:"since"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	Environment  string `mapstructure:"environment"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMaxRetries indicates a negative retry count.
	ErrInvalidMaxRetries = errors.New("retry.max_retries must be non-negative")
	// ErrInvalidBaseDelay indicates a non-positive base delay.
	ErrInvalidBaseDelay = errors.New("retry.base_delay_ms must be positive")
	// ErrInvalidMultiplier indicates a multiplier below 1.
	ErrInvalidMultiplier = errors.New("retry.multiplier must be at least 1")
	// ErrInvalidMaxDelay indicates a max delay below the base delay.
	ErrInvalidMaxDelay = errors.New("retry.max_delay_ms must be at least retry.base_delay_ms")
	// ErrInvalidTimeout indicates a non-positive HTTP timeout.
	ErrInvalidTimeout = errors.New("http.timeout_seconds must be positive")
	// ErrInvalidThrottle indicates a non-positive throttle value.
	ErrInvalidThrottle = errors.New("throttle values must be positive")
	// ErrInvalidSince indicates an unparseable npm.since date.
	ErrInvalidSince = errors.New("npm.since must be a YYYY-MM-DD date")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Retry.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.Retry.BaseDelayMS <= 0 {
		return ErrInvalidBaseDelay
	}

	if c.Retry.Multiplier < 1 {
		return ErrInvalidMultiplier
	}

	if c.Retry.MaxDelayMS < c.Retry.BaseDelayMS {
		return ErrInvalidMaxDelay
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}

	for _, throttle := range c.Throttle {
		if throttle.MaxConcurrent <= 0 || throttle.InterRequestDelayMS <= 0 {
			return ErrInvalidThrottle
		}
	}

	if c.NPM.Since != "" {
		_, err := time.Parse(time.DateOnly, c.NPM.Since)
		if err != nil {
			return ErrInvalidSince
		}
	}

	return nil
}

// SinceTime returns the parsed npm.since date, or zero when unset.
// Validate must have passed first.
func (c *Config) SinceTime() time.Time {
	if c.NPM.Since == "" {
		return time.Time{}
	}

	since, err := time.Parse(time.DateOnly, c.NPM.Since)
	if err != nil {
		return time.Time{}
	}

	return since
}
