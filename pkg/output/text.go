package output

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ccollicutt/accesslens/pkg/analyzer"
)

const (
	ruleWidth       = 60
	hoursPerRow     = 6
	maxListedIPs    = 5
	maxListedAgents = 5
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	var b strings.Builder
	if f.opts.Quiet {
		f.formatQuiet(report, &b)
	} else {
		f.formatFull(report, &b)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (f *TextFormatter) formatQuiet(report *Report, b *strings.Builder) {
	s := report.Summary()
	fmt.Fprintf(b, "accesslens: %s requests, %s unique IPs, %.2f%% errors, %d parse errors\n",
		formatCount(s.TotalRequests), formatCount(s.UniqueIPs), s.ErrorRate, s.ParseErrors)
}

func (f *TextFormatter) formatFull(report *Report, b *strings.Builder) {
	r := report.Analytics
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(b, rule)
	fmt.Fprintln(b, "LOG ANALYSIS REPORT")
	fmt.Fprintln(b, rule)

	fmt.Fprintln(b, "\nSUMMARY:")
	fmt.Fprintf(b, "  Total Requests: %s\n", formatCount(r.TotalRequests))
	fmt.Fprintf(b, "  Unique IPs: %s\n", formatCount(r.UniqueIPs))
	fmt.Fprintf(b, "  Error Rate: %.2f%%\n", r.ErrorRate)
	fmt.Fprintf(b, "  Avg Response Size: %s\n", FormatBytes(int64(r.AvgResponseSize)))

	fmt.Fprintln(b, "\nPROCESSING:")
	fmt.Fprintf(b, "  Parsing Time: %s\n", FormatDuration(roundSeconds(report.ProcessingTime.Parsing)))
	fmt.Fprintf(b, "  Analytics Time: %s\n", FormatDuration(roundSeconds(report.ProcessingTime.Analytics)))
	fmt.Fprintf(b, "  Success Rate: %.1f%%\n", report.ParsingStats.SuccessRate()*100)

	if len(r.TopEndpoints) > 0 {
		fmt.Fprintln(b, "\nTOP ENDPOINTS:")
		for _, item := range r.TopEndpoints {
			fmt.Fprintf(b, "  %-40s %6d (%.1f%%)\n", item.Key, item.Count, share(item.Count, r.TotalRequests))
		}
	}

	if len(r.TopIPs) > 0 {
		fmt.Fprintln(b, "\nTOP IP ADDRESSES:")
		for _, item := range r.TopIPs {
			fmt.Fprintf(b, "  %-15s %6d (%.1f%%)\n", item.Key, item.Count, share(item.Count, r.TotalRequests))
		}
	}

	if len(r.StatusCodeDistribution) > 0 {
		fmt.Fprintln(b, "\nSTATUS CODE DISTRIBUTION:")
		codes := make([]int, 0, len(r.StatusCodeDistribution))
		for code := range r.StatusCodeDistribution {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			n := r.StatusCodeDistribution[code]
			fmt.Fprintf(b, "  %d %6d (%.1f%%)\n", code, n, share(n, r.TotalRequests))
		}
	}

	if len(r.HourlyTraffic) > 0 {
		fmt.Fprintln(b, "\nHOURLY TRAFFIC PATTERN:")
		for i := 0; i < len(r.HourlyTraffic); i += hoursPerRow {
			end := min(i+hoursPerRow, len(r.HourlyTraffic))
			var row strings.Builder
			row.WriteString("  ")
			for _, item := range r.HourlyTraffic[i:end] {
				fmt.Fprintf(&row, "%s: %4d ", item.Key, item.Count)
			}
			fmt.Fprintln(b, strings.TrimRight(row.String(), " "))
		}
	}

	if report.PerformanceRequested && report.Performance != nil {
		m := report.Performance
		fmt.Fprintln(b, "\nPERFORMANCE METRICS:")
		fmt.Fprintf(b, "  Avg Response Time: %.3fs\n", m.Avg)
		fmt.Fprintf(b, "  Median Response Time: %.3fs\n", m.Median)
		fmt.Fprintf(b, "  95th Percentile: %.3fs\n", m.P95)
		fmt.Fprintf(b, "  99th Percentile: %.3fs\n", m.P99)
		fmt.Fprintf(b, "  Max Response Time: %.3fs\n", m.Max)
	}

	if s := report.Suspicious; s != nil && !s.Empty() {
		f.formatSuspicious(s, b)
	}

	if report.Trends != nil {
		f.formatTrends(report.Trends, b)
	}

	if f.opts.Verbose && report.Details != nil {
		f.formatDetails(report.Details, b)
	}

	if r.ErrorCount() > 0 {
		fmt.Fprintln(b, "\nERRORS:")
		fmt.Fprintf(b, "  Total Error Responses: %d\n", r.ErrorCount())
		if report.ParsingStats.ErrorCount > 0 {
			fmt.Fprintf(b, "  Parsing Errors: %d\n", report.ParsingStats.ErrorCount)
		}
	}

	if f.opts.Verbose && len(report.ParsingStats.Errors) > 0 {
		fmt.Fprintln(b, "\nPARSE ERRORS (first 10):")
		for _, msg := range report.ParsingStats.Errors {
			fmt.Fprintf(b, "  %s\n", msg)
		}
	}

	fmt.Fprintln(b, "\n"+rule)
}

func (f *TextFormatter) formatSuspicious(s *analyzer.SuspiciousActivity, b *strings.Builder) {
	fmt.Fprintln(b, "\nSUSPICIOUS ACTIVITY:")

	if len(s.HighVolumeIPs) > 0 {
		fmt.Fprintln(b, "  High Volume IPs:")
		for _, item := range head(s.HighVolumeIPs, maxListedIPs) {
			fmt.Fprintf(b, "    %s: %d requests\n", item.Key, item.Count)
		}
	}

	if len(s.HighErrorIPs) > 0 {
		fmt.Fprintln(b, "  High Error Rate IPs:")
		for i, item := range s.HighErrorIPs {
			if i == maxListedIPs {
				break
			}
			fmt.Fprintf(b, "    %s: %d/%d errors (%.1f%%)\n", item.IP, item.ErrorCount, item.TotalRequests, item.ErrorRate)
		}
	}

	if len(s.PotentialBots) > 0 {
		fmt.Fprintln(b, "  Potential Bots:")
		for _, item := range head(s.PotentialBots, maxListedIPs) {
			fmt.Fprintf(b, "    %s: %d bot-like requests\n", item.Key, item.Count)
		}
	}
}

func (f *TextFormatter) formatTrends(t *TrendSection, b *strings.Builder) {
	fmt.Fprintf(b, "\nTRAFFIC TRENDS (%s windows):\n", t.Window)
	if len(t.Points) == 0 {
		fmt.Fprintln(b, "  No traffic")
	}
	for _, p := range t.Points {
		fmt.Fprintf(b, "  %-25s %6d requests %5d errors (%.1f%%) %5d IPs\n",
			p.WindowStart.ISO(), p.RequestCount, p.ErrorCount, p.ErrorRate, p.UniqueIPs)
	}

	if len(t.Gaps) > 0 {
		fmt.Fprintf(b, "\nQUIET PERIODS (over %s):\n", t.GapThreshold)
		for _, g := range t.Gaps {
			fmt.Fprintf(b, "  %s -> %s (%s)\n", g.Start.ISO(), g.End.ISO(), FormatDuration(g.Duration.Seconds()))
		}
	}
}

func (f *TextFormatter) formatDetails(d *Details, b *strings.Builder) {
	fmt.Fprintln(b, "\nDETAILS:")
	fmt.Fprintf(b, "  Server Error Rate: %.2f%%\n", d.ServerErrorRate)
	fmt.Fprintf(b, "  Slow Requests: %d\n", d.SlowRequests)
	fmt.Fprintf(b, "  Large Responses: %d\n", d.LargeResponses)

	if len(d.DailyTraffic) > 0 {
		fmt.Fprintln(b, "  Daily Traffic:")
		for _, item := range d.DailyTraffic {
			fmt.Fprintf(b, "    %s %8d\n", item.Key, item.Count)
		}
	}

	if len(d.UserAgents) > 0 {
		fmt.Fprintln(b, "  Top User Agents:")
		for _, item := range head(d.UserAgents, maxListedAgents) {
			fmt.Fprintf(b, "    %6d %s\n", item.Count, item.Key)
		}
	}

	if len(d.Referrers) > 0 {
		fmt.Fprintln(b, "  Top Referrers:")
		for _, item := range head(d.Referrers, maxListedAgents) {
			fmt.Fprintf(b, "    %6d %s\n", item.Count, item.Key)
		}
	}
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func head(c analyzer.Counts, n int) analyzer.Counts {
	if len(c) > n {
		return c[:n]
	}
	return c
}

// WriteTrendsText renders only the trends section of a report.
func WriteTrendsText(w io.Writer, t *TrendSection) error {
	var b strings.Builder
	(&TextFormatter{}).formatTrends(t, &b)
	_, err := io.WriteString(w, strings.TrimPrefix(b.String(), "\n"))
	return err
}
