package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/accesslens/pkg/config"
	"github.com/ccollicutt/accesslens/pkg/detector"
	"github.com/ccollicutt/accesslens/pkg/output"
	"github.com/ccollicutt/accesslens/pkg/parser"
)

// Diagnostic statuses.
const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

const diagnoseSampleSize = 50

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigFile string
	Verbose    bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [log-file]...",
		Short: "Diagnose configuration and log file issues",
		Long: `Diagnose common problems before running an analysis.

This command checks:
- Config file syntax and values (when --config is given)
- Log file existence, size limit and compression
- Access log format of each file, and whether strict mode would accept it
- Webhook configuration (and connectivity with --verbose)

Example:
  accesslens diagnose /var/log/nginx/access.log
  accesslens diagnose -c accesslens.yaml -v '/var/log/nginx/access.log*'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file to check")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, logFiles []string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	cfg := config.DefaultConfig()
	if opts.ConfigFile != "" {
		result := checkConfigExists(opts.ConfigFile)
		results = append(results, result)
		if result.Status == statusError {
			printDiagnostics(w, results, opts)
			return nil
		}

		var parsed *config.Config
		parsed, result = checkConfigParseable(ctx, opts.ConfigFile)
		results = append(results, result)
		if result.Status == statusError {
			printDiagnostics(w, results, opts)
			return nil
		}
		cfg = parsed
	} else if opts.Verbose {
		results = append(results, DiagnosticResult{
			Check:   "Config File",
			Status:  statusOK,
			Message: "No config file given, using defaults",
		})
	}

	files, sourceResults := checkLogSources(logFiles, cfg)
	results = append(results, sourceResults...)

	results = append(results, checkLogFormats(ctx, files, opts)...)

	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = statusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'accesslens detect <log-file> --write-config accesslens.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = statusError
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = statusWarning
		result.Message = "Config file is empty, defaults will be used"
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = statusOK
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Strict mode: %t", cfg.Parsing.StrictMode),
		fmt.Sprintf("Workers: %d", cfg.Parsing.Workers),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

// checkLogSources checks each argument and returns the files that can be read.
func checkLogSources(patterns []string, cfg *config.Config) ([]string, []DiagnosticResult) {
	results := []DiagnosticResult{}

	if len(patterns) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Files",
			Status:  statusWarning,
			Message: "No log files given",
			Suggests: []string{
				"Pass log files or globs: accesslens diagnose /var/log/nginx/access.log*",
			},
		})
		return nil, results
	}

	limit := cfg.Parsing.MaxFileSizeBytes()
	var files []string

	for _, source := range patterns {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Source: %s", source),
		}

		matches, err := parser.ExpandGlobs([]string{source})
		if err != nil {
			result.Status = statusError
			result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			results = append(results, result)
			continue
		}

		var problems, warnings []string
		for _, path := range matches {
			info, err := os.Stat(path)
			switch {
			case os.IsNotExist(err):
				problems = append(problems, fmt.Sprintf("%s: file does not exist", path))
			case err != nil:
				problems = append(problems, fmt.Sprintf("%s: %v", path, err))
			case info.IsDir():
				problems = append(problems, fmt.Sprintf("%s: is a directory", path))
			case limit > 0 && info.Size() > limit:
				problems = append(problems, fmt.Sprintf("%s: %s exceeds max_file_size_mb (%d)",
					path, output.FormatBytes(info.Size()), cfg.Parsing.MaxFileSizeMB))
			case info.Size() == 0:
				warnings = append(warnings, fmt.Sprintf("%s: file is empty", path))
			default:
				files = append(files, path)
				result.Details = append(result.Details, fmt.Sprintf("%s (%s, compression: %s)",
					path, output.FormatBytes(info.Size()), parser.DetectCompression(path)))
			}
		}

		switch {
		case len(problems) > 0:
			result.Status = statusError
			result.Message = fmt.Sprintf("%d problem(s)", len(problems))
			result.Details = append(problems, result.Details...)
			result.Suggests = []string{
				"Check the path and permissions",
				"Raise parsing.max_file_size_mb or set it to 0 to disable the limit",
			}
		case len(warnings) > 0:
			result.Status = statusWarning
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = append(warnings, result.Details...)
		default:
			result.Status = statusOK
			result.Message = fmt.Sprintf("%d readable file(s)", len(matches))
		}
		results = append(results, result)
	}

	if len(files) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Files Summary",
			Status:  statusError,
			Message: "No readable log files found",
			Suggests: []string{
				"Ensure at least one log file exists and is readable",
			},
		})
	}

	return files, results
}

// checkLogFormats samples every file and reports its grammar.
func checkLogFormats(ctx context.Context, files []string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}
	d := detector.New(detector.WithSampleSize(diagnoseSampleSize))

	for _, path := range files {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Format: %s", filepath.Base(path)),
		}

		detected, err := d.DetectFromFile(ctx, path)
		if err != nil {
			result.Status = statusError
			result.Message = fmt.Sprintf("Cannot read file: %v", err)
			results = append(results, result)
			continue
		}

		best := detected.BestMatch()
		switch {
		case best == nil:
			result.Status = statusError
			result.Message = fmt.Sprintf("No access log format matches the first %d lines", detected.SampledLines)
			result.Suggests = []string{
				"accesslens reads Common, Combined and Extended access logs",
				"Use 'accesslens detect " + path + "' for details",
			}
		case !detected.StrictSafe():
			result.Status = statusWarning
			result.Message = fmt.Sprintf("%s, but %d/%d sampled lines would fail to parse",
				best.Format.Name, detected.SampledLines-detected.ParsedLines, detected.SampledLines)
			if best.FirstError != "" {
				result.Details = append(result.Details, truncate(best.FirstError, 100))
			}
			result.Suggests = []string{"Leave strict_mode off for this file"}
		default:
			result.Status = statusOK
			result.Message = fmt.Sprintf("%s (%.0f%% of sample)", best.Format.Name, best.Confidence*100)
			if opts.Verbose {
				result.Details = append(result.Details, "Sample match:", truncate(best.SampleLine, 80))
			}
		}
		result.Details = append(result.Details, detected.Notes...)

		results = append(results, result)
	}

	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== accesslens Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case statusOK:
			icon = "PASS"
			okCount++
		case statusWarning:
			icon = "WARN"
			warnCount++
		case statusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != statusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nReady to analyze, with warnings.")
	} else {
		fmt.Fprintln(w, "\nReady to analyze!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  statusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		if strings.HasPrefix(wh.Token, "$") {
			result.Status = statusWarning
			result.Message = "Token appears to be an unresolved env var"
			result.Details = []string{wh.Token}
		} else {
			result.Status = statusOK
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = statusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
