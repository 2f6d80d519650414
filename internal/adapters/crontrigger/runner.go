// Package crontrigger fires registered cron jobs on local schedules. Every
// firing goes through the job registry, so the run tracker still guarantees at
// most one successful run per key even when an external scheduler triggers the
// same jobs over HTTP.
package crontrigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service/cronjobs"
)

// Triggerer runs a named job; *cronjobs.Registry satisfies it.
type Triggerer interface {
	Trigger(ctx context.Context, p cronjobs.TriggerParams) (cronjobs.Outcome, error)
}

// Schedule binds a job name to a standard five-field cron expression.
type Schedule struct {
	Job  string
	Spec string
}

var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedules parses "job=spec;job=spec". Blank entries are ignored.
func ParseSchedules(raw string) ([]Schedule, error) {
	var out []Schedule
	seen := map[string]struct{}{}
	for entry := range strings.SplitSeq(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		job, spec, ok := strings.Cut(entry, "=")
		job, spec = strings.TrimSpace(job), strings.TrimSpace(spec)
		if !ok || job == "" || spec == "" {
			return nil, fmt.Errorf("invalid schedule entry %q: want job=spec", entry)
		}
		if _, dup := seen[job]; dup {
			return nil, fmt.Errorf("duplicate schedule for job %q", job)
		}
		if _, err := specParser.Parse(spec); err != nil {
			return nil, fmt.Errorf("schedule for %s: %w", job, err)
		}
		seen[job] = struct{}{}
		out = append(out, Schedule{Job: job, Spec: spec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out, nil
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Jobs      Triggerer
	Schedules []Schedule
	// Known restricts schedules to registered job names when set.
	Known  []string
	Logger *slog.Logger
	// Timeout bounds a single firing. Defaults to 10 minutes.
	Timeout time.Duration
}

// Runner owns a robfig/cron scheduler in UTC.
type Runner struct {
	jobs    Triggerer
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	entries int
}

// NewRunner validates the schedules and builds the runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Jobs == nil {
		return nil, errors.New("job triggerer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cron_trigger")
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	known := map[string]struct{}{}
	for _, name := range opts.Known {
		known[name] = struct{}{}
	}

	cl := cronLogger{logger: logger}
	r := &Runner{
		jobs:    opts.Jobs,
		logger:  logger,
		timeout: timeout,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithParser(specParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	for _, s := range opts.Schedules {
		if len(known) > 0 {
			if _, ok := known[s.Job]; !ok {
				return nil, fmt.Errorf("%w: %s", cronjobs.ErrUnknownJob, s.Job)
			}
		}
		if _, err := r.cron.AddFunc(s.Spec, r.fire(s.Job)); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", s.Job, err)
		}
		r.entries++
	}
	return r, nil
}

func (r *Runner) fire(job string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		// Registry.Trigger logs and records metrics for every outcome.
		if _, err := r.jobs.Trigger(ctx, cronjobs.TriggerParams{Name: job, Now: time.Now()}); err != nil {
			r.logger.Debug("scheduled trigger returned error", "job", job, "error", err)
		}
	}
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// in-flight firings to finish.
func (r *Runner) Run(ctx context.Context) error {
	if r.entries == 0 {
		r.logger.Warn("no cron schedules configured; trigger idle")
	}
	r.cron.Start()
	r.logger.Info("cron trigger started", "schedules", r.entries)

	<-ctx.Done()
	stopped := r.cron.Stop()
	<-stopped.Done()
	r.logger.Info("cron trigger stopped", "reason", ctx.Err())
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ logger *slog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
