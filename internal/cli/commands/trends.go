package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/accesslens/internal/logging"
	"github.com/ccollicutt/accesslens/pkg/config"
	"github.com/ccollicutt/accesslens/pkg/metrics"
	"github.com/ccollicutt/accesslens/pkg/output"
	"github.com/ccollicutt/accesslens/pkg/parser"
)

// TrendsOptions holds command-line options for the trends command.
type TrendsOptions struct {
	ConfigFile string
	Format     string
	Window     time.Duration
	Gap        time.Duration
	Strict     bool
	LogLevel   string
}

// NewTrendsCommand creates the trends command.
func NewTrendsCommand() *cobra.Command {
	opts := &TrendsOptions{}

	cmd := &cobra.Command{
		Use:   "trends <log-file>...",
		Short: "Show traffic over fixed time windows",
		Long: `Group requests into fixed windows starting at the earliest entry and
report request count, errors, error rate and unique clients per window.
Windows without traffic are skipped; quiet periods longer than --gap are
listed separately.

Example:
  accesslens trends --window 5m access.log
  accesslens trends --gap 30m -f json 'access.log*'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrends(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (defaults are used when missing)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", config.DefaultOutputFormat, "Output format (text|json)")
	cmd.Flags().DurationVarP(&opts.Window, "window", "w", config.DefaultTrendWindow, "Window size")
	cmd.Flags().DurationVar(&opts.Gap, "gap", config.DefaultGapThreshold, "Report quiet periods longer than this")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Stop at the first unparseable line")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Diagnostic log level (debug|info|warn|error|off)")

	return cmd
}

func runTrends(cmd *cobra.Command, args []string, opts *TrendsOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx, opts.ConfigFile, func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("format") {
			cfg.Output.Format = opts.Format
		}
		if flags.Changed("window") {
			cfg.Analytics.TrendWindow = opts.Window
		}
		if flags.Changed("gap") {
			cfg.Analytics.GapThreshold = opts.Gap
		}
		if flags.Changed("strict") {
			cfg.Parsing.StrictMode = opts.Strict
		}
		if flags.Changed("log-level") {
			cfg.Logging.Level = opts.LogLevel
		}
	})
	if err != nil {
		return err
	}

	logger := newLogger(cfg, false).WithComponent("trends")
	warnMissingConfig(logger, opts.ConfigFile)

	files, err := parser.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding log files: %w", err)
	}

	entries, _, err := parseFiles(ctx, files, cfg, logger, metrics.NewCollector())
	if err != nil {
		return err
	}

	section := trendSection(entries, cfg.Analytics.TrendWindow, cfg.Analytics.GapThreshold)
	return writeTrends(cmd, cfg.Output.Format, section, logger)
}

func writeTrends(cmd *cobra.Command, format string, section *output.TrendSection, logger *logging.Logger) error {
	w := cmd.OutOrStdout()
	logger.Debug().Int("windows", len(section.Points)).Int("gaps", len(section.Gaps)).Msg("trends computed")

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(section)
	default:
		return output.WriteTrendsText(w, section)
	}
}
