package data

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

var cronRunCols = []string{"id", "job_name", "run_key", "status", "started_at", "finished_at", "details"}

func newCronRunRepoMock(t *testing.T) (*CronRunRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCronRunRepo(db, nil), mock
}

func TestCronRunRepo_Insert(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	insertSQL := regexp.QuoteMeta("INSERT INTO cron_job_runs (job_name, run_key, status, started_at)")

	t.Run("created", func(t *testing.T) {
		repo, mock := newCronRunRepoMock(t)
		mock.ExpectQuery(insertSQL).
			WithArgs("autosend", "2025-01-02T03", now).
			WillReturnRows(sqlmock.NewRows(cronRunCols).
				AddRow("run-1", "autosend", "2025-01-02T03", "started", now, nil, nil))

		run, err := repo.Insert(context.Background(), core.InsertCronRunParams{
			JobName: "autosend", RunKey: "2025-01-02T03", StartedAt: now,
		})
		require.NoError(t, err)
		assert.Equal(t, "run-1", run.ID)
		assert.Equal(t, model.CronRunStatusStarted, run.Status)
		assert.Nil(t, run.FinishedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		repo, mock := newCronRunRepoMock(t)
		mock.ExpectQuery(insertSQL).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "cron_job_runs_job_name_run_key_key"})

		_, err := repo.Insert(context.Background(), core.InsertCronRunParams{JobName: "autosend", RunKey: "k", StartedAt: now})
		require.ErrorIs(t, err, ErrCronRunExists)
		assert.NotErrorIs(t, err, ErrCronRunsUnavailable)
	})

	t.Run("missing table", func(t *testing.T) {
		repo, mock := newCronRunRepoMock(t)
		mock.ExpectQuery(insertSQL).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UndefinedTable, Message: `relation "cron_job_runs" does not exist`})

		_, err := repo.Insert(context.Background(), core.InsertCronRunParams{JobName: "autosend", RunKey: "k", StartedAt: now})
		require.ErrorIs(t, err, ErrCronRunsUnavailable)
	})

	t.Run("other error passes through", func(t *testing.T) {
		repo, mock := newCronRunRepoMock(t)
		mock.ExpectQuery(insertSQL).WillReturnError(assert.AnError)

		_, err := repo.Insert(context.Background(), core.InsertCronRunParams{JobName: "autosend", RunKey: "k", StartedAt: now})
		require.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, ErrCronRunExists)
	})
}

func TestCronRunRepo_GetByKey(t *testing.T) {
	started := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	finished := started.Add(time.Minute)
	query := regexp.QuoteMeta("FROM cron_job_runs WHERE job_name = $1 AND run_key = $2")

	t.Run("found", func(t *testing.T) {
		repo, mock := newCronRunRepoMock(t)
		mock.ExpectQuery(query).WithArgs("rollup", "2025-01-02").
			WillReturnRows(sqlmock.NewRows(cronRunCols).
				AddRow("run-2", "rollup", "2025-01-02", "success", started, finished, []byte(`{"total":3}`)))

		run, err := repo.GetByKey(context.Background(), "rollup", "2025-01-02")
		require.NoError(t, err)
		assert.Equal(t, model.CronRunStatusSuccess, run.Status)
		require.NotNil(t, run.FinishedAt)
		assert.Equal(t, finished, *run.FinishedAt)
		assert.JSONEq(t, `{"total":3}`, string(run.Details))
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newCronRunRepoMock(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(cronRunCols))

		_, err := repo.GetByKey(context.Background(), "rollup", "2025-01-02")
		require.ErrorIs(t, err, ErrCronRunNotFound)
	})

	t.Run("unknown status", func(t *testing.T) {
		repo, mock := newCronRunRepoMock(t)
		mock.ExpectQuery(query).WithArgs("rollup", "2025-01-02").
			WillReturnRows(sqlmock.NewRows(cronRunCols).
				AddRow("run-3", "rollup", "2025-01-02", "bogus", started, nil, nil))

		run, err := repo.GetByKey(context.Background(), "rollup", "2025-01-02")
		require.Error(t, err)
		assert.Nil(t, run)
		assert.NotErrorIs(t, err, ErrCronRunNotFound)
		assert.Contains(t, err.Error(), `unknown status "bogus"`)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCronRunRepo_Reopen(t *testing.T) {
	prev := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	now := prev.Add(20 * time.Minute)
	query := regexp.QuoteMeta("UPDATE cron_job_runs SET status = 'started'")

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"won", 1, true},
		{"lost", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newCronRunRepoMock(t)
			mock.ExpectExec(query).
				WithArgs("run-1", now, "started", prev).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.Reopen(context.Background(), core.ReopenCronRunParams{
				ID: "run-1", ExpectStatus: model.CronRunStatusStarted, ExpectStartedAt: prev, StartedAt: now,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCronRunRepo_Finish(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 5, 0, 0, time.UTC)
	query := regexp.QuoteMeta("UPDATE cron_job_runs SET status = $2, finished_at = $3, details = $4 WHERE id = $1")

	t.Run("records details", func(t *testing.T) {
		repo, mock := newCronRunRepoMock(t)
		mock.ExpectExec(query).
			WithArgs("run-1", "error", now, []byte(`{"error":"boom"}`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Finish(context.Background(), core.FinishCronRunParams{
			ID: "run-1", Status: model.CronRunStatusError, FinishedAt: now, Details: json.RawMessage(`{"error":"boom"}`),
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-terminal status", func(t *testing.T) {
		repo, _ := newCronRunRepoMock(t)
		err := repo.Finish(context.Background(), core.FinishCronRunParams{ID: "run-1", Status: model.CronRunStatusStarted, FinishedAt: now})
		require.Error(t, err)
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newCronRunRepoMock(t)
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 0))
		err := repo.Finish(context.Background(), core.FinishCronRunParams{ID: "gone", Status: model.CronRunStatusSuccess, FinishedAt: now})
		require.ErrorIs(t, err, ErrCronRunNotFound)
	})
}

func TestCronRunRepo_ListRecent(t *testing.T) {
	repo, mock := newCronRunRepoMock(t)
	started := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY started_at DESC")).
		WithArgs("", maxCronRunList).
		WillReturnRows(sqlmock.NewRows(cronRunCols).
			AddRow("a", "autosend", "2025-01-02T03", "success", started, started, nil).
			AddRow("b", "rollup", "2025-01-01", "error", started.Add(-time.Hour), nil, []byte(`{"error":"x"}`)))

	runs, err := repo.ListRecent(context.Background(), core.CronRunListOptions{Limit: 10_000})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a", runs[0].ID)
	assert.Equal(t, model.CronRunStatusError, runs[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
