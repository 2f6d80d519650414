// Package model defines the core data types shared by the community service layers.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CronRunStatus is the lifecycle state of a tracked cron run.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type CronRunStatus string

const (
	// CronRunStatusStarted marks a run that has begun and not yet reported an outcome.
	CronRunStatusStarted CronRunStatus = "started"
	// CronRunStatusSuccess marks a run that completed successfully.
	CronRunStatusSuccess CronRunStatus = "success"
	// CronRunStatusError marks a run whose job body failed.
	CronRunStatusError CronRunStatus = "error"
)

// Valid returns true if the CronRunStatus is one of the known states.
func (s CronRunStatus) Valid() bool {
	return s == CronRunStatusStarted || s == CronRunStatusSuccess || s == CronRunStatusError
}

// Terminal reports whether the status is a final outcome.
func (s CronRunStatus) Terminal() bool {
	return s == CronRunStatusSuccess || s == CronRunStatusError
}

// UnmarshalText implements encoding.TextUnmarshaler for CronRunStatus.
func (s *CronRunStatus) UnmarshalText(text []byte) error {
	v := CronRunStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid CronRunStatus: %q", v)
	}
	*s = v
	return nil
}

// CronRun is one attempt to execute a named job for a specific run key.
// At most one row exists per (JobName, RunKey).
type CronRun struct {
	ID         string          `json:"id"                    db:"id"`
	JobName    string          `json:"job_name"              db:"job_name"`
	RunKey     string          `json:"run_key"               db:"run_key"`
	Status     CronRunStatus   `json:"status"                db:"status"`
	StartedAt  time.Time       `json:"started_at"            db:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty" db:"finished_at"`
	Details    json.RawMessage `json:"details,omitempty"     db:"details"`
}

// CronSkipReason explains why a run was not started.
type CronSkipReason string

const (
	// CronSkipAlreadySucceeded means the key already has a successful run.
	CronSkipAlreadySucceeded CronSkipReason = "already_succeeded"
	// CronSkipAlreadyRunning means a fresh run for the key is in progress elsewhere.
	CronSkipAlreadyRunning CronSkipReason = "already_running"
)

// CronDecision is the outcome of beginning a run.
// Proceed=false always carries a SkipReason. Tracking=false means the run
// proceeds without a bookkeeping row and RunID is empty.
type CronDecision struct {
	Proceed    bool           `json:"proceed"`
	Tracking   bool           `json:"tracking"`
	RunID      string         `json:"run_id,omitempty"`
	SkipReason CronSkipReason `json:"skip_reason,omitempty"`
}

// ProceedTracked returns a decision to run with the given tracking row.
func ProceedTracked(runID string) CronDecision {
	return CronDecision{Proceed: true, Tracking: true, RunID: runID}
}

// ProceedUntracked returns a decision to run without idempotency tracking.
func ProceedUntracked() CronDecision {
	return CronDecision{Proceed: true}
}

// Skip returns a decision not to run.
func Skip(reason CronSkipReason) CronDecision {
	return CronDecision{SkipReason: reason}
}
