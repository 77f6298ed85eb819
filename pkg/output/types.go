// Package output provides formatting and export of analysis results.
package output

import (
	"encoding/json"
	"math"
	"time"

	"github.com/ccollicutt/accesslens/pkg/analyzer"
	"github.com/ccollicutt/accesslens/pkg/parser"
)

// NoResponseTimeMessage is reported when performance metrics were requested
// but no entry carried a response time.
const NoResponseTimeMessage = "No response time data available"

// Report is the complete output of an analysis run.
type Report struct {
	// Analytics is the aggregate report over all parsed entries.
	Analytics *analyzer.Report

	// ParsingStats combines the statistics of every parsed file.
	ParsingStats parser.Stats

	ProcessingTime ProcessingTime

	// Performance is set when requested; nil means no timed entries.
	Performance          *analyzer.PerformanceMetrics
	PerformanceRequested bool

	// Optional sections, nil when not requested.
	Suspicious *analyzer.SuspiciousActivity
	Trends     *TrendSection
	Details    *Details

	Metadata Metadata
}

// ProcessingTime records how long each phase took.
type ProcessingTime struct {
	Parsing   time.Duration
	Analytics time.Duration
}

// Total returns the sum of both phases.
func (p ProcessingTime) Total() time.Duration {
	return p.Parsing + p.Analytics
}

// MarshalJSON reports seconds rounded to milliseconds.
func (p ProcessingTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Parsing   float64 `json:"parsing_seconds"`
		Analytics float64 `json:"analytics_seconds"`
		Total     float64 `json:"total_seconds"`
	}{roundSeconds(p.Parsing), roundSeconds(p.Analytics), roundSeconds(p.Total())})
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

// TrendSection holds windowed traffic and quiet periods.
type TrendSection struct {
	Window       time.Duration         `json:"-"`
	GapThreshold time.Duration         `json:"-"`
	Points       []analyzer.TrendPoint `json:"points"`
	Gaps         []analyzer.Gap        `json:"gaps"`
}

// MarshalJSON adds the window and gap threshold in minutes.
func (t *TrendSection) MarshalJSON() ([]byte, error) {
	type plain TrendSection
	return json.Marshal(struct {
		WindowMinutes       float64 `json:"window_minutes"`
		GapThresholdMinutes float64 `json:"gap_threshold_minutes"`
		*plain
	}{t.Window.Minutes(), t.GapThreshold.Minutes(), (*plain)(t)})
}

// Details holds the extra breakdowns shown in verbose mode.
type Details struct {
	ServerErrorRate float64         `json:"server_error_rate"`
	DailyTraffic    analyzer.Counts `json:"daily_traffic"`
	UserAgents      analyzer.Counts `json:"top_user_agents"`
	Referrers       analyzer.Counts `json:"top_referrers"`
	SlowRequests    int             `json:"slow_requests"`
	LargeResponses  int             `json:"large_responses"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// Sources lists the log files that were analyzed.
	Sources []string `json:"sources"`

	// Strict is true when the run used strict parsing.
	Strict bool `json:"strict"`

	// AnalyzedAt is when the analysis finished.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// HasErrors reports error responses or unparseable lines.
func (r *Report) HasErrors() bool {
	return r.ParsingStats.ErrorCount > 0 || (r.Analytics != nil && r.Analytics.ErrorCount() > 0)
}

// MarshalJSON encodes the report envelope. Optional sections are omitted
// when they were not requested.
func (r *Report) MarshalJSON() ([]byte, error) {
	env := struct {
		Report         *analyzer.Report             `json:"report"`
		ParsingStats   parser.Stats                 `json:"parsing_stats"`
		ProcessingTime ProcessingTime               `json:"processing_time"`
		Performance    any                          `json:"performance_metrics,omitempty"`
		Suspicious     *analyzer.SuspiciousActivity `json:"suspicious_activity,omitempty"`
		Trends         *TrendSection                `json:"trends,omitempty"`
		Details        *Details                     `json:"details,omitempty"`
		Metadata       Metadata                     `json:"metadata"`
	}{
		Report:         r.Analytics,
		ParsingStats:   r.ParsingStats,
		ProcessingTime: r.ProcessingTime,
		Suspicious:     r.Suspicious,
		Trends:         r.Trends,
		Details:        r.Details,
		Metadata:       r.Metadata,
	}

	if r.PerformanceRequested {
		if r.Performance != nil {
			env.Performance = r.Performance
		} else {
			env.Performance = map[string]string{"message": NoResponseTimeMessage}
		}
	}

	return json.Marshal(env)
}

// Summary is the compact form used by quiet output.
type Summary struct {
	TotalRequests int     `json:"total_requests"`
	UniqueIPs     int     `json:"unique_ips"`
	ErrorRate     float64 `json:"error_rate"`
	ParseErrors   int     `json:"parse_errors"`
}

// Summary returns the compact form of r.
func (r *Report) Summary() Summary {
	s := Summary{ParseErrors: r.ParsingStats.ErrorCount}
	if r.Analytics != nil {
		s.TotalRequests = r.Analytics.TotalRequests
		s.UniqueIPs = r.Analytics.UniqueIPs
		s.ErrorRate = math.Round(r.Analytics.ErrorRate*10000) / 10000
	}
	return s
}
