package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/accesslens/internal/logging"
	"github.com/ccollicutt/accesslens/pkg/analyzer"
	"github.com/ccollicutt/accesslens/pkg/config"
	"github.com/ccollicutt/accesslens/pkg/metrics"
	"github.com/ccollicutt/accesslens/pkg/output"
	"github.com/ccollicutt/accesslens/pkg/parser"
	"github.com/ccollicutt/accesslens/pkg/record"
	"github.com/ccollicutt/accesslens/pkg/webhook"
)

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	ConfigFile  string
	Format      string
	OutputFile  string
	TopN        int
	Strict      bool
	Performance bool
	Suspicious  bool
	Trends      bool
	Window      time.Duration
	CSVFile     string
	MetricsFile string
	LogLevel    string
	Verbose     bool
	Quiet       bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <log-file>...",
		Short: "Analyze web server access logs",
		Long: `Parse access logs in Common, Combined or Extended format and report
traffic analytics.

The report covers:
  - Request totals, unique clients and error rate
  - Top endpoints and client IPs
  - Status code distribution and hourly traffic

Optional sections add response time percentiles (--performance), suspicious
client heuristics (--suspicious) and windowed traffic trends (--trends).

Files ending in .gz are gunzipped and .sz/.snappy files are snappy-decoded.
Several files are parsed concurrently and analyzed as one data set.

Example:
  accesslens analyze /var/log/nginx/access.log
  accesslens analyze --suspicious --performance -f json '/var/log/nginx/access.log*'
  accesslens analyze --trends --window 15m -o report.txt access.log`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (defaults are used when missing)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", config.DefaultOutputFormat, "Output format (text|json)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().IntVarP(&opts.TopN, "top", "t", config.DefaultTopN, "Number of top endpoints and IPs to show")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Stop at the first unparseable line")
	cmd.Flags().BoolVar(&opts.Performance, "performance", false, "Include response time metrics")
	cmd.Flags().BoolVar(&opts.Suspicious, "suspicious", false, "Include suspicious activity detection")
	cmd.Flags().BoolVar(&opts.Trends, "trends", false, "Include traffic trends and quiet periods")
	cmd.Flags().DurationVar(&opts.Window, "window", config.DefaultTrendWindow, "Trend window size")
	cmd.Flags().StringVar(&opts.CSVFile, "csv", "", "Export parsed entries to a CSV file")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Diagnostic log level (debug|info|warn|error|off)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed breakdowns and parse errors")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no progress output")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnErrors), "When to fire webhook (on_errors|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx, opts.ConfigFile, analyzeOverrides(cmd, opts))
	if err != nil {
		return err
	}

	logger := newLogger(cfg, opts.Quiet).WithComponent("analyze")
	warnMissingConfig(logger, opts.ConfigFile)

	webhooks, err := collectWebhooks(cfg, opts)
	if err != nil {
		return err
	}

	files, err := parser.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding log files: %w", err)
	}

	collector := metrics.NewCollector()

	parseStart := time.Now()
	entries, stats, err := parseFiles(ctx, files, cfg, logger, collector)
	if err != nil {
		return err
	}
	parseTime := time.Since(parseStart)

	logger.Info().
		Int("entries", stats.ParsedCount).
		Int("errors", stats.ErrorCount).
		Dur("duration", parseTime).
		Msg("parsing complete")

	report := buildReport(entries, stats, cfg, opts, collector)
	report.ProcessingTime.Parsing = parseTime
	report.Metadata = output.Metadata{
		ConfigFile: opts.ConfigFile,
		Sources:    files,
		Strict:     cfg.Parsing.StrictMode,
		AnalyzedAt: time.Now(),
	}

	logger.Info().Dur("duration", report.ProcessingTime.Analytics).Msg("analytics complete")

	formatter, err := createFormatter(cfg.Output.Format, opts)
	if err != nil {
		return err
	}

	if err := writeReport(ctx, formatter, report, opts.OutputFile, cmd.OutOrStdout()); err != nil {
		return err
	}
	if opts.OutputFile != "" {
		logger.Info().Str("path", opts.OutputFile).Msg("report saved")
	}

	if opts.CSVFile != "" {
		if err := output.SaveCSV(opts.CSVFile, entries); err != nil {
			return err
		}
		logger.Info().Str("path", opts.CSVFile).Int("rows", len(entries)).Msg("entries exported")
	}

	a := report.Analytics
	collector.RecordReport(a.TotalRequests, a.UniqueIPs, a.ErrorRate, a.StatusCodeDistribution)
	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	// Webhook failures are logged but don't fail the analysis.
	sendWebhooks(ctx, webhooks, report, logger)

	return nil
}

// loadConfig loads the configuration file (or the defaults), lets override
// apply flag values and validates the result.
func loadConfig(ctx context.Context, path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if override != nil {
		override(cfg)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// analyzeOverrides copies the flags the user set onto cfg.
func analyzeOverrides(cmd *cobra.Command, opts *AnalyzeOptions) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("format") {
			cfg.Output.Format = opts.Format
		}
		if flags.Changed("top") {
			cfg.Analytics.TopN = opts.TopN
		}
		if flags.Changed("strict") {
			cfg.Parsing.StrictMode = opts.Strict
		}
		if flags.Changed("window") {
			cfg.Analytics.TrendWindow = opts.Window
		}
		if flags.Changed("metrics-file") {
			cfg.Metrics.Textfile = opts.MetricsFile
		}
		if flags.Changed("log-level") {
			cfg.Logging.Level = opts.LogLevel
		}
	}
}

func warnMissingConfig(logger *logging.Logger, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn().Str("path", path).Msg("config file not found, using defaults")
	}
}

// newLogger builds the stderr logger. Quiet runs only log errors.
func newLogger(cfg *config.Config, quiet bool) *logging.Logger {
	level := cfg.Logging.Level
	if quiet {
		level = "error"
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
	})
}

type parseResult struct {
	entries []*record.LogEntry
	stats   parser.Stats
}

// parseFiles parses every file with its own Parser, up to Workers at a
// time. Entries are concatenated in file order. With several files, stored
// error messages name the file they came from.
func parseFiles(ctx context.Context, files []string, cfg *config.Config, logger *logging.Logger, collector *metrics.Collector) ([]*record.LogEntry, parser.Stats, error) {
	results := make([]parseResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Parsing.Workers, 1))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := checkFileSize(path, cfg.Parsing.MaxFileSizeBytes()); err != nil {
				return err
			}

			fileLogger := logger.Logger.With().Str("file", path).Logger()
			p := parser.New(
				parser.WithStrictMode(cfg.Parsing.StrictMode),
				parser.WithLogger(fileLogger),
				parser.WithMetrics(collector),
			)

			entries, err := p.ParseFile(gctx, path)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}

			stats := p.Stats()
			if len(files) > 1 {
				stats = stats.WithSource(path)
			}
			results[i] = parseResult{entries: entries, stats: stats}
			fileLogger.Info().
				Int("parsed", stats.ParsedCount).
				Int("errors", stats.ErrorCount).
				Msg("parsed log file")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, parser.Stats{}, err
	}

	var (
		entries []*record.LogEntry
		stats   parser.Stats
	)
	for _, r := range results {
		entries = append(entries, r.entries...)
		stats = stats.Combine(r.stats)
	}
	return entries, stats, nil
}

// checkFileSize rejects files above limit. A limit of 0 disables the check.
func checkFileSize(path string, limit int64) error {
	if limit <= 0 {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		// Missing files are reported by the parser.
		return nil
	}
	if info.Size() > limit {
		return fmt.Errorf("%s is %s, above the %s limit (parsing.max_file_size_mb)",
			path, output.FormatBytes(info.Size()), output.FormatBytes(limit))
	}
	return nil
}

// buildReport runs the requested analytics over entries.
func buildReport(entries []*record.LogEntry, stats parser.Stats, cfg *config.Config, opts *AnalyzeOptions, collector *metrics.Collector) *output.Report {
	start := time.Now()
	a := analyzer.New(entries)
	ac := cfg.Analytics

	timed := func(operation string, fn func()) {
		t := time.Now()
		fn()
		collector.ObserveAnalytics(operation, time.Since(t))
	}

	report := &output.Report{
		ParsingStats:         stats,
		PerformanceRequested: opts.Performance,
	}

	timed("report", func() {
		report.Analytics = a.GenerateReport(ac.TopN)
	})

	if opts.Performance {
		timed("performance", func() {
			if m, ok := a.PerformanceMetrics(); ok {
				report.Performance = &m
			}
		})
	}

	if opts.Suspicious {
		timed("suspicious", func() {
			report.Suspicious = a.DetectSuspiciousActivity(suspiciousOptions(ac.Suspicious))
		})
	}

	if opts.Trends {
		timed("trends", func() {
			report.Trends = trendSection(entries, ac.TrendWindow, ac.GapThreshold)
		})
	}

	if opts.Verbose {
		timed("details", func() {
			report.Details = &output.Details{
				ServerErrorRate: a.ServerErrorRate(),
				DailyTraffic:    a.DailyTraffic(),
				UserAgents:      a.UserAgents(ac.TopN),
				Referrers:       a.Referrers(ac.TopN),
				SlowRequests:    len(a.SlowRequests(ac.SlowRequestThreshold)),
				LargeResponses:  len(a.LargeResponses(ac.LargeResponseThreshold)),
			}
		})
	}

	report.ProcessingTime.Analytics = time.Since(start)
	return report
}

func suspiciousOptions(s config.SuspiciousConfig) analyzer.SuspiciousOptions {
	return analyzer.SuspiciousOptions{
		VolumeMultiplier:        s.VolumeMultiplier,
		VolumeFloor:             s.VolumeFloor,
		MinRequestsForErrorRate: s.MinRequests,
		ErrorFraction:           s.ErrorFraction,
		MaxBots:                 s.MaxBots,
	}
}

func trendSection(entries []*record.LogEntry, window, gapThreshold time.Duration) *output.TrendSection {
	if window <= 0 {
		window = analyzer.DefaultTrendWindow
	}
	return &output.TrendSection{
		Window:       window,
		GapThreshold: gapThreshold,
		Points:       analyzer.Trends(entries, window),
		Gaps:         analyzer.TrafficGaps(entries, gapThreshold),
	}
}

func createFormatter(format string, opts *AnalyzeOptions) (output.Formatter, error) {
	return output.NewFormatter(format, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}

// writeReport formats report to path, or to stdout when path is empty.
func writeReport(ctx context.Context, formatter output.Formatter, report *output.Report, path string, stdout io.Writer) error {
	if path == "" {
		if err := formatter.Format(ctx, report, stdout); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}
		return nil
	}

	f, err := os.Create(path) // #nosec G304 -- user-provided output path is expected
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := formatter.Format(ctx, report, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("formatting output: %w", err)
	}
	return f.Close()
}

// sendWebhooks sends the report to every webhook whose trigger matches.
func sendWebhooks(ctx context.Context, webhooks []config.WebhookConfig, report *output.Report, logger *logging.Logger) {
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()
	hasErrors := report.HasErrors()

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger, hasErrors) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			logger.Info().
				Str("webhook", name).
				Int("status", resp.StatusCode).
				Dur("duration", resp.Duration).
				Msg("webhook sent")
		} else {
			logger.Error().Err(resp.Error).Str("webhook", name).Msg("webhook failed")
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		wh := config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
		}
		if err := config.ValidateWebhook(&wh); err != nil {
			return nil, fmt.Errorf("webhook flags: %w", err)
		}
		webhooks = append(webhooks, wh)
	}

	return webhooks, nil
}

// shouldFireWebhook determines if a webhook should fire based on its trigger.
func shouldFireWebhook(trigger config.WebhookTrigger, hasErrors bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return hasErrors
	}
}
