// Package config loads pkgpulse settings from file, environment, and
// defaults, and validates them before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".pkgpulse"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for pkgpulse settings.
const envPrefix = "PKGPULSE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("artifacts.npm", []string{})
	viperCfg.SetDefault("artifacts.github", []string{})
	viperCfg.SetDefault("artifacts.marketplace", []string{})

	viperCfg.SetDefault("retry.max_retries", DefaultRetryMaxRetries)
	viperCfg.SetDefault("retry.base_delay_ms", DefaultRetryBaseDelayMS)
	viperCfg.SetDefault("retry.multiplier", DefaultRetryMultiplier)
	viperCfg.SetDefault("retry.max_delay_ms", DefaultRetryMaxDelayMS)

	viperCfg.SetDefault("http.timeout_seconds", DefaultHTTPTimeoutSeconds)

	viperCfg.SetDefault("telemetry.environment", DefaultTelemetryEnvironment)
}
