package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault loads path, or returns the defaults when path is empty or
// the file does not exist. Environment overrides apply in both cases.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		cfg, err := Load(ctx, path)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}
	return finish(DefaultConfig())
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults for
// optional webhook fields.
func Validate(cfg *Config) error {
	if err := validateParsing(&cfg.Parsing); err != nil {
		return fmt.Errorf("parsing: %w", err)
	}

	if err := validateAnalytics(&cfg.Analytics); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}

	switch cfg.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output: invalid format %q (must be text or json)", cfg.Output.Format)
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "off", "disabled":
	default:
		return fmt.Errorf("logging: invalid level %q", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging: invalid format %q (must be auto, console, or json)", cfg.Logging.Format)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := ValidateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateParsing(p *ParsingConfig) error {
	if p.MaxFileSizeMB < 0 {
		return errors.New("max_file_size_mb must be >= 0")
	}
	if p.Workers < 1 {
		return errors.New("workers must be >= 1")
	}
	return nil
}

func validateAnalytics(a *AnalyticsConfig) error {
	if a.TopN < 1 {
		return fmt.Errorf("top_n must be >= 1, got %d", a.TopN)
	}
	if a.SlowRequestThreshold < 0 {
		return errors.New("slow_request_threshold must be >= 0")
	}
	if a.LargeResponseThreshold < 0 {
		return errors.New("large_response_threshold must be >= 0")
	}
	if a.TrendWindow <= 0 {
		return errors.New("trend_window must be positive")
	}
	if a.GapThreshold <= 0 {
		return errors.New("gap_threshold must be positive")
	}

	s := a.Suspicious
	if s.VolumeMultiplier <= 0 || s.VolumeFloor < 1 || s.MinRequests < 1 {
		return errors.New("suspicious: volume_multiplier, volume_floor and min_requests must be positive")
	}
	if s.MaxBots < 1 {
		return fmt.Errorf("suspicious: max_bots must be >= 1, got %d", s.MaxBots)
	}
	if s.ErrorFraction <= 0 || s.ErrorFraction >= 1 {
		return fmt.Errorf("suspicious: error_fraction must be between 0 and 1, got %g", s.ErrorFraction)
	}
	return nil
}

// ValidateWebhook checks a webhook and applies its defaults.
func ValidateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnErrors, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_errors, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnErrors
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
