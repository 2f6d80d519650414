// Package data provides the Postgres and Redis repositories behind the core
// ports: members, DM threads, outbound messages, Slack events and cron runs.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	apperrors "github.com/itsAR-VR/Community-Intellect-sub001/internal/errors"
)

const (
	cronRunColumns     = `id, job_name, run_key, status, started_at, finished_at, details`
	defaultCronRunList = 50
	maxCronRunList     = 500
)

// CronRunRepo persists cron_job_runs rows. The unique (job_name, run_key)
// constraint is the mutual-exclusion primitive for tracked jobs.
type CronRunRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewCronRunRepo creates a new CronRunRepo.
func NewCronRunRepo(db *sql.DB, logger *slog.Logger) *CronRunRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronRunRepo{DB: db, logger: logger.With("component", "cron_run_repo")}
}

var _ core.CronRunRepository = (*CronRunRepo)(nil)

// mapCronErr translates driver errors into the repository sentinels.
func mapCronErr(err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsUndefinedTable(err):
		return fmt.Errorf("%w: %w", ErrCronRunsUnavailable, err)
	case apperrors.IsUniqueViolation(err):
		return fmt.Errorf("%w: %w", ErrCronRunExists, err)
	case errors.Is(err, sql.ErrNoRows):
		return ErrCronRunNotFound
	default:
		return err
	}
}

// Insert creates a started row for (job, key).
func (r *CronRunRepo) Insert(ctx context.Context, p core.InsertCronRunParams) (*model.CronRun, error) {
	query := `
		INSERT INTO cron_job_runs (job_name, run_key, status, started_at)
		VALUES ($1, $2, 'started', $3)
		RETURNING ` + cronRunColumns

	row := r.DB.QueryRowContext(ctx, query, p.JobName, p.RunKey, p.StartedAt.UTC())
	run, err := scanCronRun(row)
	if err != nil {
		mapped := mapCronErr(err)
		if errors.Is(mapped, ErrCronRunExists) {
			r.logger.DebugContext(ctx, "cron run key already taken", "job", p.JobName, "run_key", p.RunKey)
		}
		return nil, fmt.Errorf("insert cron run: %w", mapped)
	}
	return run, nil
}

// GetByKey loads the row for (job, key).
func (r *CronRunRepo) GetByKey(ctx context.Context, jobName, runKey string) (*model.CronRun, error) {
	query := `SELECT ` + cronRunColumns + ` FROM cron_job_runs WHERE job_name = $1 AND run_key = $2`
	run, err := scanCronRun(r.DB.QueryRowContext(ctx, query, jobName, runKey))
	if err != nil {
		return nil, fmt.Errorf("get cron run: %w", mapCronErr(err))
	}
	return run, nil
}

// Reopen resets a row to started if it still matches the expected status and start time.
// It returns false when another process changed the row first.
func (r *CronRunRepo) Reopen(ctx context.Context, p core.ReopenCronRunParams) (bool, error) {
	query := `
		UPDATE cron_job_runs
		SET status = 'started', started_at = $2, finished_at = NULL, details = NULL
		WHERE id = $1 AND status = $3 AND started_at = $4`

	res, err := r.DB.ExecContext(ctx, query, p.ID, p.StartedAt.UTC(), string(p.ExpectStatus), p.ExpectStartedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("reopen cron run: %w", mapCronErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reopen cron run rows affected: %w", err)
	}
	return n == 1, nil
}

// Finish records the outcome of a run. The update is unconditional.
func (r *CronRunRepo) Finish(ctx context.Context, p core.FinishCronRunParams) error {
	if !p.Status.Terminal() {
		return fmt.Errorf("finish cron run: status %q is not terminal", p.Status)
	}
	var details any
	if len(p.Details) > 0 {
		details = []byte(p.Details)
	}

	query := `UPDATE cron_job_runs SET status = $2, finished_at = $3, details = $4 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, p.ID, string(p.Status), p.FinishedAt.UTC(), details)
	if err != nil {
		return fmt.Errorf("finish cron run: %w", mapCronErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish cron run rows affected: %w", err)
	}
	if n == 0 {
		return ErrCronRunNotFound
	}
	return nil
}

// ListRecent returns the most recently started runs, newest first.
func (r *CronRunRepo) ListRecent(ctx context.Context, opts core.CronRunListOptions) ([]*model.CronRun, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultCronRunList
	}
	if limit > maxCronRunList {
		limit = maxCronRunList
	}

	query := `SELECT ` + cronRunColumns + ` FROM cron_job_runs
		WHERE ($1 = '' OR job_name = $1)
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, opts.JobName, limit)
	if err != nil {
		return nil, fmt.Errorf("list cron runs: %w", mapCronErr(err))
	}
	defer rows.Close()

	var out []*model.CronRun
	for rows.Next() {
		run, scanErr := scanCronRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("list cron runs: %w", scanErr)
		}
		out = append(out, run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list cron runs: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// cronRunRow mirrors the cron_job_runs columns.
type cronRunRow struct {
	ID         string
	JobName    string
	RunKey     string
	Status     string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Details    []byte
}

func (r *cronRunRow) toDomain() (*model.CronRun, error) {
	status := model.CronRunStatus(r.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("cron run %s: unknown status %q", r.ID, r.Status)
	}
	run := &model.CronRun{
		ID:        r.ID,
		JobName:   r.JobName,
		RunKey:    r.RunKey,
		Status:    status,
		StartedAt: r.StartedAt,
	}
	if r.FinishedAt.Valid {
		t := r.FinishedAt.Time
		run.FinishedAt = &t
	}
	if len(r.Details) > 0 {
		run.Details = json.RawMessage(r.Details)
	}
	return run, nil
}

func scanCronRun(s rowScanner) (*model.CronRun, error) {
	var row cronRunRow
	if err := s.Scan(&row.ID, &row.JobName, &row.RunKey, &row.Status, &row.StartedAt, &row.FinishedAt, &row.Details); err != nil {
		return nil, err
	}
	return row.toDomain()
}
