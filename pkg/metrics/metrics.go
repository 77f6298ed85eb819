// Package metrics exposes Prometheus metrics for parsing and analytics runs.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accesslens"

// Collector holds the metrics of one process. All methods are safe on a nil
// receiver so callers can leave metrics disabled.
type Collector struct {
	// Parser metrics
	LinesParsed    *prometheus.CounterVec
	LinesFailed    prometheus.Counter
	LinesSkipped   prometheus.Counter
	FilesProcessed *prometheus.CounterVec
	ParseDuration  prometheus.Histogram

	// Analytics metrics
	AnalyticsDuration *prometheus.HistogramVec

	// Report metrics, set from the last generated report
	ReportRequests  prometheus.Gauge
	ReportUniqueIPs prometheus.Gauge
	ReportErrorRate prometheus.Gauge
	ReportStatus    *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewCollector creates a collector backed by its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{registry: registry}

	c.initParserMetrics()
	c.initAnalyticsMetrics()
	c.initReportMetrics()

	return c
}

func (c *Collector) initParserMetrics() {
	c.LinesParsed = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "lines_parsed_total",
			Help:      "Total number of log lines parsed into entries",
		},
		[]string{"format"},
	)

	c.LinesFailed = promauto.With(c.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "lines_failed_total",
			Help:      "Total number of log lines that failed to parse",
		},
	)

	c.LinesSkipped = promauto.With(c.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "lines_skipped_total",
			Help:      "Total number of blank or comment lines skipped",
		},
	)

	c.FilesProcessed = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "files_processed_total",
			Help:      "Total number of log files processed",
		},
		[]string{"status"},
	)

	c.ParseDuration = promauto.With(c.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "file_duration_seconds",
			Help:      "Time spent parsing a single log file",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
}

func (c *Collector) initAnalyticsMetrics() {
	c.AnalyticsDuration = promauto.With(c.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "duration_seconds",
			Help:      "Time spent computing analytics",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
}

func (c *Collector) initReportMetrics() {
	c.ReportRequests = promauto.With(c.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "requests",
			Help:      "Total requests in the last report",
		},
	)

	c.ReportUniqueIPs = promauto.With(c.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "unique_ips",
			Help:      "Distinct client IPs in the last report",
		},
	)

	c.ReportErrorRate = promauto.With(c.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "error_rate",
			Help:      "Percentage of 4xx/5xx responses in the last report",
		},
	)

	c.ReportStatus = promauto.With(c.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "status_code_requests",
			Help:      "Requests per HTTP status code in the last report",
		},
		[]string{"code"},
	)
}

// LineParsed counts a parsed line for the given grammar name.
func (c *Collector) LineParsed(format string) {
	if c == nil {
		return
	}
	c.LinesParsed.WithLabelValues(format).Inc()
}

// LineFailed counts a line that could not be parsed.
func (c *Collector) LineFailed() {
	if c == nil {
		return
	}
	c.LinesFailed.Inc()
}

// LineSkipped counts a blank or comment line.
func (c *Collector) LineSkipped() {
	if c == nil {
		return
	}
	c.LinesSkipped.Inc()
}

// FileDone records one processed file and how long it took.
func (c *Collector) FileDone(err error, d time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.FilesProcessed.WithLabelValues(status).Inc()
	c.ParseDuration.Observe(d.Seconds())
}

// ObserveAnalytics records the duration of an analytics operation.
func (c *Collector) ObserveAnalytics(operation string, d time.Duration) {
	if c == nil {
		return
	}
	c.AnalyticsDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordReport sets the report gauges. Status gauges from earlier reports are cleared.
func (c *Collector) RecordReport(total, uniqueIPs int, errorRate float64, statusCodes map[int]int) {
	if c == nil {
		return
	}
	c.ReportRequests.Set(float64(total))
	c.ReportUniqueIPs.Set(float64(uniqueIPs))
	c.ReportErrorRate.Set(errorRate)
	c.ReportStatus.Reset()
	for code, n := range statusCodes {
		c.ReportStatus.WithLabelValues(strconv.Itoa(code)).Set(float64(n))
	}
}

// WriteTextfile writes all metrics in the Prometheus text format, suitable for
// the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
