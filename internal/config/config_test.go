package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pkgpulse/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Nil(t, cfg)

	cfg, err = config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultRetryMaxRetries, cfg.Retry.MaxRetries)
	assert.Equal(t, config.DefaultRetryBaseDelayMS, cfg.Retry.BaseDelayMS)
	assert.InEpsilon(t, config.DefaultRetryMultiplier, cfg.Retry.Multiplier, 0.0001)
	assert.Equal(t, config.DefaultRetryMaxDelayMS, cfg.Retry.MaxDelayMS)
	assert.Equal(t, config.DefaultHTTPTimeoutSeconds, cfg.HTTP.TimeoutSeconds)
	assert.Empty(t, cfg.Artifacts.NPM)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	content := `
artifacts:
  npm:
    - pkg-a
    - pkg-b
  github:
    - org/repo-b
tokens:
  github: ghp_testtoken
throttle:
  github:
    max_concurrent: 1
    inter_request_delay_ms: 3000
retry:
  max_retries: 5
npm:
  since: "2024-01-15"
`

	path := filepath.Join(t.TempDir(), "pkgpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"pkg-a", "pkg-b"}, cfg.Artifacts.NPM)
	assert.Equal(t, []string{"org/repo-b"}, cfg.Artifacts.GitHub)
	assert.Equal(t, "ghp_testtoken", cfg.Tokens.GitHub)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, config.DefaultRetryBaseDelayMS, cfg.Retry.BaseDelayMS)

	github, ok := cfg.Throttle["github"]
	require.True(t, ok)
	assert.Equal(t, 1, github.MaxConcurrent)
	assert.Equal(t, 3000, github.InterRequestDelayMS)

	since := cfg.SinceTime()
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), since)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() config.Config {
		return config.Config{
			Retry: config.RetryConfig{
				MaxRetries:  config.DefaultRetryMaxRetries,
				BaseDelayMS: config.DefaultRetryBaseDelayMS,
				Multiplier:  config.DefaultRetryMultiplier,
				MaxDelayMS:  config.DefaultRetryMaxDelayMS,
			},
			HTTP: config.HTTPConfig{TimeoutSeconds: config.DefaultHTTPTimeoutSeconds},
		}
	}

	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr error
	}{
		{
			name:    "valid",
			mutate:  func(*config.Config) {},
			wantErr: nil,
		},
		{
			name:    "negative retries",
			mutate:  func(cfg *config.Config) { cfg.Retry.MaxRetries = -1 },
			wantErr: config.ErrInvalidMaxRetries,
		},
		{
			name:    "zero base delay",
			mutate:  func(cfg *config.Config) { cfg.Retry.BaseDelayMS = 0 },
			wantErr: config.ErrInvalidBaseDelay,
		},
		{
			name:    "multiplier below one",
			mutate:  func(cfg *config.Config) { cfg.Retry.Multiplier = 0.5 },
			wantErr: config.ErrInvalidMultiplier,
		},
		{
			name:    "max delay below base",
			mutate:  func(cfg *config.Config) { cfg.Retry.MaxDelayMS = 10 },
			wantErr: config.ErrInvalidMaxDelay,
		},
		{
			name:    "zero timeout",
			mutate:  func(cfg *config.Config) { cfg.HTTP.TimeoutSeconds = 0 },
			wantErr: config.ErrInvalidTimeout,
		},
		{
			name: "bad throttle",
			mutate: func(cfg *config.Config) {
				cfg.Throttle = map[string]config.ThrottleConfig{
					"npm": {MaxConcurrent: 0, InterRequestDelayMS: 100},
				}
			},
			wantErr: config.ErrInvalidThrottle,
		},
		{
			name:    "bad since date",
			mutate:  func(cfg *config.Config) { cfg.NPM.Since = "15-01-2024" },
			wantErr: config.ErrInvalidSince,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSinceTimeUnset(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	assert.True(t, cfg.SinceTime().IsZero())
}
