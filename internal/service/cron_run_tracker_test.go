package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/mocks"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/mocks/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var trackerNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTrackerWithMock(t *testing.T) (*mocks.MockCronRunRepository, *CronRunTracker) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockCronRunRepository(ctrl)
	tracker, err := NewCronRunTracker(CronRunTrackerOptions{
		Repo: repo,
		Now:  func() time.Time { return trackerNow },
	})
	require.NoError(t, err)
	return repo, tracker
}

func TestNewCronRunTracker_Validation(t *testing.T) {
	_, err := NewCronRunTracker(CronRunTrackerOptions{})
	require.Error(t, err)

	_, err = NewCronRunTracker(CronRunTrackerOptions{Repo: memstore.NewCronRuns(), StaleAfter: -time.Second})
	require.Error(t, err)
}

func TestCronRunTracker_Begin_FreshKey(t *testing.T) {
	repo, tracker := newTrackerWithMock(t)
	ctx := context.Background()

	repo.EXPECT().
		Insert(ctx, core.InsertCronRunParams{JobName: "autosend", RunKey: "2026-03-02", StartedAt: trackerNow}).
		Return(&model.CronRun{ID: "run-1"}, nil)

	d, err := tracker.Begin(ctx, "autosend", "2026-03-02", trackerNow)
	require.NoError(t, err)
	assert.Equal(t, model.ProceedTracked("run-1"), d)
}

func TestCronRunTracker_Begin_TableMissing(t *testing.T) {
	repo, tracker := newTrackerWithMock(t)
	ctx := context.Background()

	repo.EXPECT().Insert(ctx, gomock.Any()).
		Return(nil, errors.Join(data.ErrCronRunsUnavailable, errors.New("42P01")))

	d, err := tracker.Begin(ctx, "autosend", "k", trackerNow)
	require.NoError(t, err)
	assert.True(t, d.Proceed)
	assert.False(t, d.Tracking)
	assert.Empty(t, d.RunID)
}

func TestCronRunTracker_Begin_UnexpectedError(t *testing.T) {
	repo, tracker := newTrackerWithMock(t)
	ctx := context.Background()

	repo.EXPECT().Insert(ctx, gomock.Any()).Return(nil, errors.New("connection refused"))

	_, err := tracker.Begin(ctx, "autosend", "k", trackerNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCronRunTracker_Begin_ExistingRows(t *testing.T) {
	tests := []struct {
		name     string
		existing model.CronRun
		reopen   *bool
		want     model.CronDecision
	}{
		{
			name:     "success blocks",
			existing: model.CronRun{ID: "r", Status: model.CronRunStatusSuccess, StartedAt: trackerNow.Add(-time.Hour)},
			want:     model.Skip(model.CronSkipAlreadySucceeded),
		},
		{
			name:     "fresh started blocks",
			existing: model.CronRun{ID: "r", Status: model.CronRunStatusStarted, StartedAt: trackerNow.Add(-time.Minute)},
			want:     model.Skip(model.CronSkipAlreadyRunning),
		},
		{
			name:     "started exactly at threshold blocks",
			existing: model.CronRun{ID: "r", Status: model.CronRunStatusStarted, StartedAt: trackerNow.Add(-15 * time.Minute)},
			want:     model.Skip(model.CronSkipAlreadyRunning),
		},
		{
			name:     "stale started reopens",
			existing: model.CronRun{ID: "r", Status: model.CronRunStatusStarted, StartedAt: trackerNow.Add(-16 * time.Minute)},
			reopen:   boolPtr(true),
			want:     model.ProceedTracked("r"),
		},
		{
			name:     "error row reopens",
			existing: model.CronRun{ID: "r", Status: model.CronRunStatusError, StartedAt: trackerNow.Add(-time.Minute)},
			reopen:   boolPtr(true),
			want:     model.ProceedTracked("r"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, tracker := newTrackerWithMock(t)
			ctx := context.Background()
			existing := tt.existing

			repo.EXPECT().Insert(ctx, gomock.Any()).Return(nil, data.ErrCronRunExists)
			repo.EXPECT().GetByKey(ctx, "job", "key").Return(&existing, nil)
			if tt.reopen != nil {
				repo.EXPECT().Reopen(ctx, core.ReopenCronRunParams{
					ID:              existing.ID,
					ExpectStatus:    existing.Status,
					ExpectStartedAt: existing.StartedAt,
					StartedAt:       trackerNow,
				}).Return(*tt.reopen, nil)
			}

			d, err := tracker.Begin(ctx, "job", "key", trackerNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestCronRunTracker_Begin_LostReopenRace(t *testing.T) {
	tests := []struct {
		name    string
		current model.CronRunStatus
		want    model.CronSkipReason
	}{
		{"winner still running", model.CronRunStatusStarted, model.CronSkipAlreadyRunning},
		{"winner already finished", model.CronRunStatusSuccess, model.CronSkipAlreadySucceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, tracker := newTrackerWithMock(t)
			ctx := context.Background()
			stale := &model.CronRun{ID: "r", Status: model.CronRunStatusStarted, StartedAt: trackerNow.Add(-time.Hour)}

			gomock.InOrder(
				repo.EXPECT().Insert(ctx, gomock.Any()).Return(nil, data.ErrCronRunExists),
				repo.EXPECT().GetByKey(ctx, "job", "key").Return(stale, nil),
				repo.EXPECT().Reopen(ctx, gomock.Any()).Return(false, nil),
				repo.EXPECT().GetByKey(ctx, "job", "key").
					Return(&model.CronRun{ID: "r", Status: tt.current, StartedAt: trackerNow}, nil),
			)

			d, err := tracker.Begin(ctx, "job", "key", trackerNow)
			require.NoError(t, err)
			assert.Equal(t, model.Skip(tt.want), d)
		})
	}
}

func TestCronRunTracker_Finish(t *testing.T) {
	repo, tracker := newTrackerWithMock(t)
	ctx := context.Background()

	// Untracked runs have nothing to finish.
	require.NoError(t, tracker.Finish(ctx, "", model.CronRunStatusSuccess, trackerNow, nil))

	repo.EXPECT().Finish(ctx, core.FinishCronRunParams{
		ID:         "run-1",
		Status:     model.CronRunStatusSuccess,
		FinishedAt: trackerNow,
		Details:    json.RawMessage(`{"sent":3}`),
	}).Return(nil)
	require.NoError(t, tracker.Finish(ctx, "run-1", model.CronRunStatusSuccess, trackerNow, map[string]int{"sent": 3}))
}

func TestCronRunTracker_Run_RecordsOutcome(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewCronRuns()
	tracker, err := NewCronRunTracker(CronRunTrackerOptions{Repo: store, Now: func() time.Time { return trackerNow }})
	require.NoError(t, err)

	res, err := tracker.Run(ctx, RunParams{
		JobName: "rollup", RunKey: "2026-03-01", Now: trackerNow,
		Fn: func(context.Context) (any, error) { return map[string]int{"events": 7}, nil },
	})
	require.NoError(t, err)
	assert.True(t, res.Decision.Tracking)

	row, err := store.GetByKey(ctx, "rollup", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, model.CronRunStatusSuccess, row.Status)
	assert.JSONEq(t, `{"events":7}`, string(row.Details))

	// Second trigger for the same key is skipped and the job does not run.
	res, err = tracker.Run(ctx, RunParams{
		JobName: "rollup", RunKey: "2026-03-01", Now: trackerNow.Add(time.Hour),
		Fn: func(context.Context) (any, error) {
			t.Fatal("job must not run twice for a succeeded key")
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.Skip(model.CronSkipAlreadySucceeded), res.Decision)
}

func TestCronRunTracker_Run_FailureThenRetry(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewCronRuns()
	tracker, err := NewCronRunTracker(CronRunTrackerOptions{Repo: store})
	require.NoError(t, err)

	boom := errors.New("slack unavailable")
	_, err = tracker.Run(ctx, RunParams{
		JobName: "autosend", RunKey: "k", Now: trackerNow,
		Fn: func(context.Context) (any, error) { return nil, boom },
	})
	require.ErrorIs(t, err, boom)

	row, err := store.GetByKey(ctx, "autosend", "k")
	require.NoError(t, err)
	assert.Equal(t, model.CronRunStatusError, row.Status)
	assert.JSONEq(t, `{"error":"slack unavailable"}`, string(row.Details))

	ran := false
	res, err := tracker.Run(ctx, RunParams{
		JobName: "autosend", RunKey: "k", Now: trackerNow.Add(time.Minute),
		Fn: func(context.Context) (any, error) { ran = true; return nil, nil },
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, row.ID, res.Decision.RunID)
}

func TestCronRunTracker_Run_Untracked(t *testing.T) {
	store := memstore.NewCronRuns()
	store.Unavailable = true
	tracker, err := NewCronRunTracker(CronRunTrackerOptions{Repo: store})
	require.NoError(t, err)

	calls := 0
	for range 2 {
		res, runErr := tracker.Run(context.Background(), RunParams{
			JobName: "autosend", RunKey: "k", Now: trackerNow,
			Fn: func(context.Context) (any, error) { calls++; return nil, nil },
		})
		require.NoError(t, runErr)
		assert.False(t, res.Decision.Tracking)
	}
	assert.Equal(t, 2, calls)
}

func TestCronRunTracker_ConcurrentBeginSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewCronRuns()
	tracker, err := NewCronRunTracker(CronRunTrackerOptions{Repo: store})
	require.NoError(t, err)

	const workers = 16
	var (
		wg      sync.WaitGroup
		ran     atomic.Int32
		skipped atomic.Int32
	)
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, runErr := tracker.Run(ctx, RunParams{
				JobName: "autosend", RunKey: "2026-03-02", Now: trackerNow,
				Fn: func(context.Context) (any, error) {
					ran.Add(1)
					return nil, nil
				},
			})
			assert.NoError(t, runErr)
			if !res.Decision.Proceed {
				skipped.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, int32(workers-1), skipped.Load())
	assert.Equal(t, 1, store.Len())
}

func TestCronRunTracker_ConcurrentStaleReopenSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewCronRuns()
	store.Set(model.CronRun{
		JobName: "autosend", RunKey: "k",
		Status: model.CronRunStatusStarted, StartedAt: trackerNow.Add(-time.Hour),
	})
	tracker, err := NewCronRunTracker(CronRunTrackerOptions{Repo: store})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		proceed atomic.Int32
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, beginErr := tracker.Begin(ctx, "autosend", "k", trackerNow)
			assert.NoError(t, beginErr)
			if d.Proceed {
				proceed.Add(1)
			} else {
				assert.Equal(t, model.CronSkipAlreadyRunning, d.SkipReason)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), proceed.Load())
}

func TestCronRunTracker_ListRecent(t *testing.T) {
	repo, tracker := newTrackerWithMock(t)
	ctx := context.Background()

	want := []*model.CronRun{{ID: "a"}}
	repo.EXPECT().ListRecent(ctx, core.CronRunListOptions{JobName: "autosend", Limit: 10}).Return(want, nil)

	got, err := tracker.ListRecent(ctx, "autosend", 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
