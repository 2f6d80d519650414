// Package cronjobs holds the tracked cron job bodies and the registry that
// routes every trigger, scheduled or HTTP, through the CronRunTracker.
package cronjobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/cronrun"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/metrics"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/notify"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service"

	obserrors "github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/errors"
)

var (
	// ErrUnknownJob is returned when triggering a name that was never registered.
	ErrUnknownJob = errors.New("unknown cron job")
	// ErrDuplicateJob is returned when registering the same name twice.
	ErrDuplicateJob = errors.New("cron job already registered")
)

// Job is one tracked cron job.
type Job struct {
	Name   string
	Bucket cronrun.Bucket
	Run    service.JobFunc
}

// FailureNotifier receives failed runs.
type FailureNotifier interface {
	NotifyCronFailure(ctx context.Context, payload notify.CronFailurePayload)
}

// RegistryOptions groups dependencies for Registry.
type RegistryOptions struct {
	Tracker  *service.CronRunTracker // Required
	Notifier FailureNotifier         // Optional
	Metrics  *metrics.Recorder       // Optional
	Logger   *slog.Logger            // Optional
}

// Registry maps job names to jobs and triggers them.
type Registry struct {
	tracker  *service.CronRunTracker
	notifier FailureNotifier
	metrics  *metrics.Recorder
	logger   *slog.Logger

	mu   sync.RWMutex
	jobs map[string]Job
}

// NewRegistry constructs an empty Registry.
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.Tracker == nil {
		return nil, errors.New("cron run tracker is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tracker:  opts.Tracker,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "cron_registry"),
		jobs:     make(map[string]Job),
	}, nil
}

// Register adds a job.
func (r *Registry) Register(job Job) error {
	if job.Name == "" {
		return errors.New("job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s: run function is required", job.Name)
	}
	if !job.Bucket.Valid() {
		return fmt.Errorf("job %s: invalid bucket %q", job.Name, job.Bucket)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	r.jobs[job.Name] = job
	return nil
}

// Names returns the registered job names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[name]
	return job, ok
}

// TriggerParams groups parameters for Trigger.
type TriggerParams struct {
	Name string
	// RunKey overrides the key derived from the job's bucket.
	RunKey string
	Now    time.Time
}

// Status is the coarse outcome of a trigger.
type Status string

// Trigger statuses.
const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Outcome describes what a trigger did.
type Outcome struct {
	Job        string               `json:"job"`
	RunKey     string               `json:"run_key"`
	Status     Status               `json:"status"`
	Reason     model.CronSkipReason `json:"reason,omitempty"`
	RunID      string               `json:"run_id,omitempty"`
	Tracked    bool                 `json:"tracked"`
	Details    any                  `json:"details,omitempty"`
	Error      string               `json:"error,omitempty"`
	DurationMS int64                `json:"duration_ms"`
}

// Trigger runs the named job for its run key at most once. Duplicate triggers
// return a skipped Outcome and no error. A failing job body returns both an
// error Outcome and the job's error.
func (r *Registry) Trigger(ctx context.Context, p TriggerParams) (Outcome, error) {
	job, ok := r.Lookup(p.Name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownJob, p.Name)
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	runKey := p.RunKey
	if runKey == "" {
		key, err := cronrun.RunKey(job.Bucket, now)
		if err != nil {
			return Outcome{}, err
		}
		runKey = key
	}

	out := Outcome{Job: job.Name, RunKey: runKey}
	res, err := r.tracker.Run(ctx, service.RunParams{JobName: job.Name, RunKey: runKey, Now: now, Fn: job.Run})
	out.RunID = res.Decision.RunID
	out.Tracked = res.Decision.Tracking
	out.Details = res.Details
	out.DurationMS = res.Duration.Milliseconds()

	switch {
	case err != nil && !res.Decision.Proceed:
		// Begin itself failed; the job never ran.
		out.Status = StatusError
		out.Error = err.Error()
		r.metrics.ObserveCronRun(metrics.CronRun{Job: job.Name, Outcome: metrics.ResultError, Err: err})
		r.logger.ErrorContext(ctx, "cron run could not start", "job", job.Name, "run_key", runKey, "error", err)
		return out, err
	case err != nil:
		out.Status = StatusError
		out.Error = err.Error()
		r.metrics.ObserveCronRun(metrics.CronRun{
			Job: job.Name, Outcome: metrics.ResultError, Duration: res.Duration, Err: err,
		})
		r.logger.ErrorContext(ctx, "cron job failed",
			"job", job.Name, "run_key", runKey, "run_id", out.RunID, "error", err)
		r.notify(ctx, out, err, now)
		return out, err
	case !res.Decision.Proceed:
		out.Status = StatusSkipped
		out.Reason = res.Decision.SkipReason
		r.metrics.ObserveCronRun(metrics.CronRun{Job: job.Name, Outcome: metrics.ResultSkipped})
		r.logger.InfoContext(ctx, "cron run skipped", "job", job.Name, "run_key", runKey, "reason", out.Reason)
		return out, nil
	default:
		out.Status = StatusSuccess
		r.metrics.ObserveCronRun(metrics.CronRun{Job: job.Name, Outcome: metrics.ResultSuccess, Duration: res.Duration})
		r.logger.InfoContext(ctx, "cron run finished",
			"job", job.Name, "run_key", runKey, "run_id", out.RunID, "duration_ms", out.DurationMS)
		return out, nil
	}
}

func (r *Registry) notify(ctx context.Context, out Outcome, err error, now time.Time) {
	if r.notifier == nil {
		return
	}
	r.notifier.NotifyCronFailure(context.WithoutCancel(ctx), notify.CronFailurePayload{
		JobName:    out.Job,
		RunKey:     out.RunKey,
		RunID:      out.RunID,
		Tracked:    out.Tracked,
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		OccurredAt: now,
		Metadata:   map[string]string{"duration_ms": fmt.Sprint(out.DurationMS)},
	})
}
