package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/bootstrap"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service/cronjobs"
)

type triggerOptions struct {
	*rootOptions
	Key     string
	Timeout time.Duration
}

func newTriggerCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &triggerOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trigger <job>",
		Short: "Run a cron job now, at most once per run key",
		Long: `Run a registered cron job through the run tracker.

A run key that already succeeded, or is running, is skipped. Use --key to
target a specific bucket, for example to re-run yesterday's rollup.

Examples:
  intellect-admin trigger autosend
  intellect-admin trigger slack-events-rollup --key 2026-03-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(cmd.Context(), opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.Key, "key", "", "run key override (defaults to the job's current bucket)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "maximum job run time")
	return cmd
}

func runTrigger(ctx context.Context, opts *triggerOptions, job string) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	logger := opts.logger()

	db, redisClient, err := connectInfra(ctx, &connectInfraOptions{Logger: logger, Config: &cfg, WantRedis: true})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeInfra(db, redisClient); closeErr != nil {
			logger.Warn("close infrastructure failed", "error", closeErr)
		}
	}()

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	out, err := services.Registry.Trigger(ctx, cronjobs.TriggerParams{
		Name:   job,
		RunKey: opts.Key,
		Now:    time.Now(),
	})
	if out.Job == "" {
		return err
	}
	if printErr := printOutcome(opts.rootOptions, out); printErr != nil {
		return errors.Join(err, printErr)
	}
	return err
}

func printOutcome(opts *rootOptions, out cronjobs.Outcome) error {
	if opts.Format == "json" {
		return opts.writeJSON(out)
	}
	w := opts.IO.Out
	if _, err := fmt.Fprintf(w, "job:      %s\nrun key:  %s\nstatus:   %s\n", out.Job, out.RunKey, out.Status); err != nil {
		return err
	}
	if out.Reason != "" {
		if _, err := fmt.Fprintf(w, "reason:   %s\n", out.Reason); err != nil {
			return err
		}
	}
	if out.RunID != "" {
		if _, err := fmt.Fprintf(w, "run id:   %s\n", out.RunID); err != nil {
			return err
		}
	}
	if !out.Tracked {
		if _, err := fmt.Fprintln(w, "tracked:  false (cron run table unavailable)"); err != nil {
			return err
		}
	}
	if out.Error != "" {
		if _, err := fmt.Fprintf(w, "error:    %s\n", out.Error); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "duration: %dms\n", out.DurationMS)
	return err
}
