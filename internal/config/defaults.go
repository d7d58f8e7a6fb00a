package config

// Default retry policy values, matching the throttle package defaults.
const (
	DefaultRetryMaxRetries  = 3
	DefaultRetryBaseDelayMS = 1000
	DefaultRetryMultiplier  = 2.0
	DefaultRetryMaxDelayMS  = 60000
)

// DefaultHTTPTimeoutSeconds bounds each external call.
const DefaultHTTPTimeoutSeconds = 15

// DefaultTelemetryEnvironment tags emitted telemetry.
const DefaultTelemetryEnvironment = "production"
