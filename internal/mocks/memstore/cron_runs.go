// Package memstore contains hand-written in-memory test doubles for repository
// ports. They honor the same uniqueness and compare-and-set contracts as the
// Postgres repositories, which makes them suitable for concurrency tests
// without a database.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

// Ensure compile-time conformance to ports.
var _ core.CronRunRepository = (*CronRuns)(nil)

type cronKey struct{ job, key string }

// CronRuns is an in-memory core.CronRunRepository.
type CronRuns struct {
	mu   sync.Mutex
	rows map[cronKey]*model.CronRun
	byID map[string]*model.CronRun
	seq  int

	// Unavailable makes every call fail as if the table were missing.
	Unavailable bool
}

// NewCronRuns creates an empty CronRuns store.
func NewCronRuns() *CronRuns {
	return &CronRuns{
		rows: make(map[cronKey]*model.CronRun),
		byID: make(map[string]*model.CronRun),
	}
}

func (s *CronRuns) unavailable() error {
	if s.Unavailable {
		return fmt.Errorf("%w: relation \"cron_job_runs\" does not exist", data.ErrCronRunsUnavailable)
	}
	return nil
}

// Insert creates a started row unless (job, key) is taken.
func (s *CronRuns) Insert(_ context.Context, p core.InsertCronRunParams) (*model.CronRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable(); err != nil {
		return nil, err
	}
	k := cronKey{p.JobName, p.RunKey}
	if _, ok := s.rows[k]; ok {
		return nil, data.ErrCronRunExists
	}
	s.seq++
	run := &model.CronRun{
		ID:        fmt.Sprintf("run-%d", s.seq),
		JobName:   p.JobName,
		RunKey:    p.RunKey,
		Status:    model.CronRunStatusStarted,
		StartedAt: p.StartedAt.UTC(),
	}
	s.rows[k] = run
	s.byID[run.ID] = run
	cp := *run
	return &cp, nil
}

// GetByKey returns a copy of the row for (job, key).
func (s *CronRuns) GetByKey(_ context.Context, jobName, runKey string) (*model.CronRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable(); err != nil {
		return nil, err
	}
	run, ok := s.rows[cronKey{jobName, runKey}]
	if !ok {
		return nil, data.ErrCronRunNotFound
	}
	cp := *run
	return &cp, nil
}

// Reopen resets the row when it still matches the expected status and start time.
func (s *CronRuns) Reopen(_ context.Context, p core.ReopenCronRunParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable(); err != nil {
		return false, err
	}
	run, ok := s.byID[p.ID]
	if !ok || run.Status != p.ExpectStatus || !run.StartedAt.Equal(p.ExpectStartedAt) {
		return false, nil
	}
	run.Status = model.CronRunStatusStarted
	run.StartedAt = p.StartedAt.UTC()
	run.FinishedAt = nil
	run.Details = nil
	return true, nil
}

// Finish sets the terminal status unconditionally.
func (s *CronRuns) Finish(_ context.Context, p core.FinishCronRunParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable(); err != nil {
		return err
	}
	run, ok := s.byID[p.ID]
	if !ok {
		return data.ErrCronRunNotFound
	}
	at := p.FinishedAt.UTC()
	run.Status = p.Status
	run.FinishedAt = &at
	run.Details = append(json.RawMessage(nil), p.Details...)
	return nil
}

// ListRecent returns rows newest first.
func (s *CronRuns) ListRecent(_ context.Context, opts core.CronRunListOptions) ([]*model.CronRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable(); err != nil {
		return nil, err
	}
	out := make([]*model.CronRun, 0, len(s.rows))
	for _, run := range s.rows {
		if opts.JobName != "" && run.JobName != opts.JobName {
			continue
		}
		cp := *run
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Set overwrites the row for (job, key); used to seed fixtures.
func (s *CronRuns) Set(run model.CronRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == "" {
		s.seq++
		run.ID = fmt.Sprintf("run-%d", s.seq)
	}
	cp := run
	s.rows[cronKey{run.JobName, run.RunKey}] = &cp
	s.byID[cp.ID] = &cp
}

// Len reports the number of stored rows.
func (s *CronRuns) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
