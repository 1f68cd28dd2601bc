package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCrawlCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run the daily pipeline once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			summary, err := application.Crawl(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "found %d, duplicates %d, selected %d, summarised %d, saved %d (%s)\n",
				summary.Curation.Found, summary.Curation.Duplicates, summary.Curation.Final,
				summary.Processing.WithSummaries, summary.Saved, summary.Duration.Round(time.Millisecond))
			for _, e := range summary.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  error: %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run summary as JSON")
	return cmd
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Serve(cmd.Context())
		},
	}
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var weekStart string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the weekly report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			var start time.Time
			if weekStart != "" {
				start, err = time.ParseInLocation(time.DateOnly, weekStart, cfg.Scheduler.Location())
				if err != nil {
					return fmt.Errorf("parse --week-start: %w", err)
				}
			}

			_, markdown, err := application.Report(cmd.Context(), start)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), markdown)
			return nil
		},
	}
	cmd.Flags().StringVar(&weekStart, "week-start", "", "first day of the week, YYYY-MM-DD (default: this week's Monday)")
	return cmd
}

func newPruneCmd(opts *rootOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored articles and reports older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if !cmd.Flags().Changed("days") {
				days = cfg.Storage.RetentionDays
			}
			if days <= 0 {
				return errors.New("--days must be positive")
			}
			removed, err := application.Prune(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d files older than %d days\n", removed, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default storage.retentionDays)")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage usage, the last crawl and the next scheduled run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			status, err := application.Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}

func newRetryCmd(opts *rootOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "retry-summaries",
		Short: "Regenerate the summaries that failed on a stored day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			target := time.Now().In(cfg.Scheduler.Location())
			if day != "" {
				if target, err = time.ParseInLocation(time.DateOnly, day, cfg.Scheduler.Location()); err != nil {
					return fmt.Errorf("parse --day: %w", err)
				}
			}
			stats, err := application.RetryFailedSummaries(cmd.Context(), target)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "stored day, YYYY-MM-DD (default: today)")
	return cmd
}
