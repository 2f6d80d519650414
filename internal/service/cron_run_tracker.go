// Package service provides business logic services for the community
// outreach system: cron run tracking, autosend, Slack event ingest and the
// member and outreach operations behind the dashboard.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/cronrun"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

// CronRunTrackerOptions groups dependencies for CronRunTracker.
type CronRunTrackerOptions struct {
	Repo       core.CronRunRepository
	StaleAfter time.Duration
	Logger     *slog.Logger
	// Now is used for finish timestamps in Run. Defaults to time.Now.
	Now func() time.Time
}

// CronRunTracker guarantees at most one successful execution per (job, run key).
// All mutual exclusion comes from the repository's unique constraint.
type CronRunTracker struct {
	repo   core.CronRunRepository
	policy *cronrun.Policy
	logger *slog.Logger
	now    func() time.Time
}

// NewCronRunTracker constructs a CronRunTracker.
func NewCronRunTracker(opts CronRunTrackerOptions) (*CronRunTracker, error) {
	if opts.Repo == nil {
		return nil, errors.New("cron run repository is required")
	}
	policy, err := cronrun.NewPolicy(opts.StaleAfter)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &CronRunTracker{
		repo:   opts.Repo,
		policy: policy,
		logger: logger.With("component", "cron_run_tracker"),
		now:    now,
	}, nil
}

// Begin claims (jobName, runKey) for a new run.
// Skip decisions are normal results, not errors. A missing tracking table
// degrades to an untracked Proceed; any other store failure is returned.
func (t *CronRunTracker) Begin(ctx context.Context, jobName, runKey string, now time.Time) (model.CronDecision, error) {
	run, err := t.repo.Insert(ctx, core.InsertCronRunParams{JobName: jobName, RunKey: runKey, StartedAt: now})
	switch {
	case err == nil:
		return model.ProceedTracked(run.ID), nil
	case errors.Is(err, data.ErrCronRunsUnavailable):
		t.logger.WarnContext(ctx, "cron run tracking unavailable, running untracked",
			"job", jobName, "run_key", runKey, "error", err)
		return model.ProceedUntracked(), nil
	case errors.Is(err, data.ErrCronRunExists):
		return t.resolveExisting(ctx, jobName, runKey, now)
	default:
		return model.CronDecision{}, fmt.Errorf("begin cron run %s/%s: %w", jobName, runKey, err)
	}
}

func (t *CronRunTracker) resolveExisting(
	ctx context.Context,
	jobName, runKey string,
	now time.Time,
) (model.CronDecision, error) {
	existing, err := t.repo.GetByKey(ctx, jobName, runKey)
	if err != nil {
		return model.CronDecision{}, fmt.Errorf("load existing cron run %s/%s: %w", jobName, runKey, err)
	}

	res := t.policy.Resolve(*existing, now)
	if res.Action == cronrun.ActionSkip {
		t.logger.DebugContext(ctx, "cron run skipped",
			"job", jobName, "run_key", runKey, "reason", res.SkipReason, "age", res.Age)
		return model.Skip(res.SkipReason), nil
	}

	won, err := t.repo.Reopen(ctx, core.ReopenCronRunParams{
		ID:              existing.ID,
		ExpectStatus:    existing.Status,
		ExpectStartedAt: existing.StartedAt,
		StartedAt:       now,
	})
	if err != nil {
		return model.CronDecision{}, fmt.Errorf("reopen cron run %s/%s: %w", jobName, runKey, err)
	}
	if won {
		t.logger.InfoContext(ctx, "reopened cron run",
			"job", jobName, "run_key", runKey, "run_id", existing.ID,
			"previous_status", existing.Status, "age", res.Age)
		return model.ProceedTracked(existing.ID), nil
	}

	// Another process reset or finished the row between our read and update.
	current, err := t.repo.GetByKey(ctx, jobName, runKey)
	if err != nil {
		return model.CronDecision{}, fmt.Errorf("reload cron run %s/%s: %w", jobName, runKey, err)
	}
	reason := model.CronSkipAlreadyRunning
	if current.Status == model.CronRunStatusSuccess {
		reason = model.CronSkipAlreadySucceeded
	}
	t.logger.DebugContext(ctx, "lost cron run reopen race", "job", jobName, "run_key", runKey, "reason", reason)
	return model.Skip(reason), nil
}

// Finish records the outcome of a tracked run. An empty runID is a no-op.
// The update is unconditional: the last writer wins.
func (t *CronRunTracker) Finish(
	ctx context.Context,
	runID string,
	status model.CronRunStatus,
	now time.Time,
	details any,
) error {
	if runID == "" {
		return nil
	}
	raw, err := marshalDetails(details)
	if err != nil {
		return fmt.Errorf("encode cron run details: %w", err)
	}
	if err = t.repo.Finish(ctx, core.FinishCronRunParams{
		ID: runID, Status: status, FinishedAt: now, Details: raw,
	}); err != nil {
		return fmt.Errorf("finish cron run %s: %w", runID, err)
	}
	return nil
}

func marshalDetails(details any) (json.RawMessage, error) {
	switch v := details.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// JobFunc is a job body. The returned value is stored as the run's details.
type JobFunc func(ctx context.Context) (any, error)

// RunParams groups parameters for CronRunTracker.Run.
type RunParams struct {
	JobName string
	RunKey  string
	Now     time.Time
	Fn      JobFunc
}

// RunResult reports what Run did.
type RunResult struct {
	Decision model.CronDecision
	Details  any
	Duration time.Duration
}

// Run begins a run, executes Fn when permitted, and records the outcome.
// A job error is stored under details.error and returned; a failure to record
// the outcome is joined with it rather than replacing it.
func (t *CronRunTracker) Run(ctx context.Context, p RunParams) (RunResult, error) {
	if p.Fn == nil {
		return RunResult{}, errors.New("job function is required")
	}
	decision, err := t.Begin(ctx, p.JobName, p.RunKey, p.Now)
	if err != nil {
		return RunResult{}, err
	}
	res := RunResult{Decision: decision}
	if !decision.Proceed {
		return res, nil
	}

	start := t.now()
	details, jobErr := p.Fn(ctx)
	end := t.now()
	res.Duration = end.Sub(start)
	res.Details = details

	// The outcome must be recorded even if the job's context was canceled.
	finishCtx := context.WithoutCancel(ctx)
	if jobErr != nil {
		errDetails := map[string]any{"error": jobErr.Error()}
		if details != nil {
			errDetails["partial"] = details
		}
		if finishErr := t.Finish(finishCtx, decision.RunID, model.CronRunStatusError, end, errDetails); finishErr != nil {
			t.logger.ErrorContext(ctx, "failed to record cron run failure",
				"job", p.JobName, "run_key", p.RunKey, "error", finishErr)
			return res, errors.Join(jobErr, finishErr)
		}
		return res, jobErr
	}

	if finishErr := t.Finish(finishCtx, decision.RunID, model.CronRunStatusSuccess, end, details); finishErr != nil {
		return res, finishErr
	}
	return res, nil
}

// ListRecent returns recent runs, optionally filtered by job name.
func (t *CronRunTracker) ListRecent(ctx context.Context, jobName string, limit int) ([]*model.CronRun, error) {
	return t.repo.ListRecent(ctx, core.CronRunListOptions{JobName: jobName, Limit: limit})
}
