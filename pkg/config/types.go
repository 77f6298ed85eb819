// Package config provides configuration loading and validation for accesslens.
package config

import "time"

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Parsing   ParsingConfig   `yaml:"parsing"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Webhooks  []WebhookConfig `yaml:"webhooks,omitempty"`
}

// ParsingConfig controls how log files are read.
type ParsingConfig struct {
	// StrictMode aborts on the first unparseable line.
	StrictMode bool `yaml:"strict_mode"`

	// MaxFileSizeMB rejects larger input files. 0 disables the check.
	MaxFileSizeMB int `yaml:"max_file_size_mb"`

	// Workers is how many files are parsed at once.
	Workers int `yaml:"workers"`
}

// MaxFileSizeBytes converts MaxFileSizeMB to bytes.
func (p ParsingConfig) MaxFileSizeBytes() int64 {
	return int64(p.MaxFileSizeMB) * 1024 * 1024
}

// AnalyticsConfig tunes the report.
type AnalyticsConfig struct {
	TopN int `yaml:"top_n"`

	// SlowRequestThreshold is in seconds.
	SlowRequestThreshold float64 `yaml:"slow_request_threshold"`

	// LargeResponseThreshold is in bytes.
	LargeResponseThreshold int64 `yaml:"large_response_threshold"`

	TrendWindow  time.Duration `yaml:"trend_window"`
	GapThreshold time.Duration `yaml:"gap_threshold"`

	Suspicious SuspiciousConfig `yaml:"suspicious"`
}

// SuspiciousConfig holds the suspicious activity thresholds.
type SuspiciousConfig struct {
	VolumeMultiplier float64 `yaml:"volume_multiplier"`
	VolumeFloor      int     `yaml:"volume_floor"`
	MinRequests      int     `yaml:"min_requests"`
	ErrorFraction    float64 `yaml:"error_fraction"`

	// MaxBots caps how many bot IPs are listed.
	MaxBots int `yaml:"max_bots"`
}

// OutputConfig selects the report format.
type OutputConfig struct {
	Format string `yaml:"format"` // text or json
}

// LoggingConfig configures diagnostic logging on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto, console or json
}

// MetricsConfig configures Prometheus metrics export.
type MetricsConfig struct {
	// Textfile is written in the node_exporter textfile format after a run.
	Textfile string `yaml:"textfile,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnErrors fires when the run saw error responses or
	// unparseable lines (default).
	WebhookTriggerOnErrors WebhookTrigger = "on_errors"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending analysis results.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_errors" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
