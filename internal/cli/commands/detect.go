package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/accesslens/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Format      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect the access log format of a file",
		Long: `Sample lines from a log file and report which access log grammar they use.

Reports the detected format with a confidence score, a parsed sample entry,
and whether strict mode would accept the sample.

Optionally generates a starter config file with --write-config.

Supports:
  - Extended (Combined plus a trailing response time)
  - Combined Log Format
  - Common Log Format (CLF)

Example:
  accesslens detect /var/log/nginx/access.log
  accesslens detect --sample 500 /var/log/nginx/access.log.gz
  accesslens detect -w accesslens.yaml /var/log/nginx/access.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all detected formats, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(w, result, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Format {
	case "json":
		return outputDetectJSON(w, result, logFile, opts)
	default:
		return outputDetectText(w, result, logFile, opts)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Access Log Format Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines parsed: %d\n", result.ParsedLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No access log format detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: accesslens reads Common, Combined and Extended access logs.")
		fmt.Fprintln(w, "Check the first few lines manually for a custom log_format.")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Format: %s\n", best.Format.Name)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines matched)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	if best.InvalidCount > 0 {
		fmt.Fprintf(w, "Rejected: %d matched lines failed validation\n", best.InvalidCount)
		fmt.Fprintf(w, "  First error: %s\n", best.FirstError)
	}
	fmt.Fprintln(w)

	if best.SampleEntry != nil {
		e := best.SampleEntry
		fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleLine)
		fmt.Fprintf(w, "Parsed as: %s %s %s -> %d (%d bytes) at %s\n",
			e.IPAddress, e.Method, e.Path, e.StatusCode, e.ResponseSize, e.Timestamp.ISO())
		fmt.Fprintln(w)
	}

	for _, note := range result.Notes {
		fmt.Fprintf(w, "Note: %s\n", note)
	}
	if len(result.Notes) > 0 {
		fmt.Fprintln(w)
	}

	if result.StrictSafe() {
		fmt.Fprintln(w, "Strict mode: safe (every sampled line parsed)")
	} else {
		fmt.Fprintln(w, "Strict mode: not recommended (some sampled lines would abort the run)")
	}
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative formats detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Format.Name, m.Confidence*100)
			fmt.Fprintf(w, "   layout: %s\n", m.Format.Description)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a format match in JSON output.
type JSONMatch struct {
	Format       string   `json:"format"`
	Name         string   `json:"name"`
	Confidence   float64  `json:"confidence"`
	MatchCount   int      `json:"match_count"`
	InvalidCount int      `json:"invalid_count"`
	SampleLine   string   `json:"sample_line,omitempty"`
	FirstError   string   `json:"first_error,omitempty"`
	Fields       []string `json:"fields"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File           string      `json:"file"`
	Matches        []JSONMatch `json:"matches"`
	SampledLines   int         `json:"sampled_lines"`
	ParsedLines    int         `json:"parsed_lines"`
	UnmatchedLines int         `json:"unmatched_lines"`
	StrictSafe     bool        `json:"strict_safe"`
	Notes          []string    `json:"notes,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:           logFile,
		SampledLines:   result.SampledLines,
		ParsedLines:    result.ParsedLines,
		UnmatchedLines: result.UnmatchedLines,
		StrictSafe:     result.StrictSafe(),
		Notes:          result.Notes,
		Matches:        make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Format:       m.Format.Format.String(),
			Name:         m.Format.Name,
			Confidence:   m.Confidence,
			MatchCount:   m.MatchCount,
			InvalidCount: m.InvalidCount,
			SampleLine:   m.SampleLine,
			FirstError:   m.FirstError,
			Fields:       m.Format.Fields,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig generates a starter config file tuned to the sample.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no access log format detected")
	}

	content := generateStarterConfig(logFile, result)

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(logFile string, result *detector.DetectionResult) string {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	best := result.BestMatch()
	responseTimes := "# response times are not logged in this format"
	if len(best.Format.Fields) > 0 && best.Format.Fields[len(best.Format.Fields)-1] == "response_time" {
		responseTimes = "# response times are logged: try --performance"
	}

	return fmt.Sprintf(`# accesslens configuration
# Generated by: accesslens detect %s
# Detected format: %s (%.0f%% confidence)
%s

parsing:
  strict_mode: %t
  max_file_size_mb: 500
  workers: 4

analytics:
  top_n: 10
  slow_request_threshold: 1.0
  large_response_threshold: 1048576
  trend_window: 1h
  gap_threshold: 15m
  suspicious:
    volume_multiplier: 10
    volume_floor: 100
    min_requests: 10
    error_fraction: 0.5
    max_bots: 10

output:
  format: text

logging:
  level: warn
  format: auto

# metrics:
#   textfile: /var/lib/node_exporter/textfile/accesslens.prom

# webhooks:
#   - name: alerts
#     url: https://hooks.example.com/accesslens
#     token: ${ACCESSLENS_WEBHOOK_TOKEN}
#     trigger: on_errors
`, absLogFile, best.Format.Name, best.Confidence*100, responseTimes, result.StrictSafe())
}
