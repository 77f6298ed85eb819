package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/accesslens/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate an accesslens configuration file without running analysis.

Checks:
  - YAML syntax
  - Value ranges (workers, top_n, thresholds, trend window)
  - Output and logging settings
  - Webhook URLs and triggers
  - Environment overrides (ACCESSLENS_STRICT, ACCESSLENS_LOG_LEVEL, ACCESSLENS_TOP_N)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")

	fmt.Fprintf(w, "\nParsing:\n")
	fmt.Fprintf(w, "  Strict mode:     %t\n", cfg.Parsing.StrictMode)
	if cfg.Parsing.MaxFileSizeMB > 0 {
		fmt.Fprintf(w, "  Max file size:   %d MB\n", cfg.Parsing.MaxFileSizeMB)
	} else {
		fmt.Fprintf(w, "  Max file size:   unlimited\n")
	}
	fmt.Fprintf(w, "  Workers:         %d\n", cfg.Parsing.Workers)

	a := cfg.Analytics
	fmt.Fprintf(w, "\nAnalytics:\n")
	fmt.Fprintf(w, "  Top N:           %d\n", a.TopN)
	fmt.Fprintf(w, "  Slow request:    > %gs\n", a.SlowRequestThreshold)
	fmt.Fprintf(w, "  Large response:  > %d bytes\n", a.LargeResponseThreshold)
	fmt.Fprintf(w, "  Trend window:    %s\n", a.TrendWindow)
	fmt.Fprintf(w, "  Gap threshold:   %s\n", a.GapThreshold)

	fmt.Fprintf(w, "\nOutput: %s, logging: %s (%s)\n", cfg.Output.Format, cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Metrics.Textfile != "" {
		fmt.Fprintf(w, "Metrics textfile: %s\n", cfg.Metrics.Textfile)
	}

	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(w, "\nWebhooks:\n")
		for i, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}
			fmt.Fprintf(w, "  %d. %s [%s, timeout %s]\n", i+1, name, wh.Trigger, wh.Timeout)
		}
	}

	return nil
}
