package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service"
)

type runsOptions struct {
	*rootOptions
	Job   string
	Limit int
}

func newRunsCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runsOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent cron runs",
		Long: `List recent tracked cron runs, newest first.

Examples:
  intellect-admin runs
  intellect-admin runs --job autosend --limit 5
  intellect-admin runs --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Job, "job", "", "filter to one job name")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to show")
	return cmd
}

func runRuns(ctx context.Context, opts *runsOptions) error {
	if opts.Limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", opts.Limit)
	}
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	logger := opts.logger()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, _, err := connectInfra(ctx, &connectInfraOptions{Logger: logger, Config: &cfg})
	if err != nil {
		return err
	}
	tracker, err := service.NewCronRunTracker(service.CronRunTrackerOptions{
		Repo:       data.NewCronRunRepo(db, logger),
		StaleAfter: cfg.Cron.StaleAfter,
		Logger:     logger,
	})
	if err != nil {
		return errors.Join(err, closeInfra(db, nil))
	}
	runs, err := tracker.ListRecent(ctx, opts.Job, opts.Limit)
	if closeErr := closeInfra(db, nil); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if err != nil {
		return err
	}
	return printRuns(opts.rootOptions, runs)
}

func printRuns(opts *rootOptions, runs []*model.CronRun) error {
	if opts.Format == "json" {
		if runs == nil {
			runs = []*model.CronRun{}
		}
		return opts.writeJSON(runs)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(opts.IO.Out, "no cron runs recorded")
		return err
	}
	tw := tabwriter.NewWriter(opts.IO.Out, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "JOB\tRUN KEY\tSTATUS\tSTARTED\tDURATION\tID"); err != nil {
		return fmt.Errorf("write runs header: %w", err)
	}
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.JobName,
			run.RunKey,
			run.Status,
			run.StartedAt.UTC().Format(time.RFC3339),
			duration,
			run.ID,
		); err != nil {
			return fmt.Errorf("write run %s: %w", run.ID, err)
		}
	}
	return tw.Flush()
}
