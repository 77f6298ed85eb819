package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default values for configuration.
const (
	DefaultMaxFileSizeMB          = 500
	DefaultWorkers                = 4
	DefaultTopN                   = 10
	DefaultSlowRequestThreshold   = 1.0
	DefaultLargeResponseThreshold = 1024 * 1024
	DefaultTrendWindow            = 60 * time.Minute
	DefaultGapThreshold           = 15 * time.Minute
	DefaultOutputFormat           = "text"
	DefaultLogLevel               = "warn"
	DefaultLogFormat              = "auto"
	DefaultWebhookTimeout         = 10 * time.Second
)

// Environment variable names.
const (
	EnvStrict   = "ACCESSLENS_STRICT"
	EnvLogLevel = "ACCESSLENS_LOG_LEVEL"
	EnvTopN     = "ACCESSLENS_TOP_N"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Parsing: ParsingConfig{
			MaxFileSizeMB: DefaultMaxFileSizeMB,
			Workers:       DefaultWorkers,
		},
		Analytics: AnalyticsConfig{
			TopN:                   DefaultTopN,
			SlowRequestThreshold:   DefaultSlowRequestThreshold,
			LargeResponseThreshold: DefaultLargeResponseThreshold,
			TrendWindow:            DefaultTrendWindow,
			GapThreshold:           DefaultGapThreshold,
			Suspicious: SuspiciousConfig{
				VolumeMultiplier: 10,
				VolumeFloor:      100,
				MinRequests:      10,
				ErrorFraction:    0.5,
				MaxBots:          10,
			},
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	if v := os.Getenv(EnvStrict); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrict, err)
		}
		c.Parsing.StrictMode = strict
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(EnvTopN); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTopN, err)
		}
		c.Analytics.TopN = n
	}

	return nil
}
