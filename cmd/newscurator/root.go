package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"NewsCurator/internal/app"
	"NewsCurator/internal/config"
	"NewsCurator/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "newscurator",
		Short: "Curate technical news around your interest topics",
		Long: `newscurator fetches the day's articles from the configured sites, drops
duplicates, keeps what matches the interest topics and summarises the best of it.

Example usage:
  newscurator crawl                        # Run the daily pipeline once
  newscurator schedule                     # Run the pipeline on the cron schedule
  newscurator report --week-start 2025-11-03
  newscurator prune --days 30
  newscurator stats`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $NEWS_CURATOR_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newCrawlCmd(opts),
		newScheduleCmd(opts),
		newReportCmd(opts),
		newPruneCmd(opts),
		newStatsCmd(opts),
		newRetryCmd(opts),
	)
	return root
}

// load reads the configuration and builds the application for one command.
func (o *rootOptions) load(cmd *cobra.Command) (*app.Application, config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, config.Config{}, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("build application: %w", err)
	}
	return application, cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
