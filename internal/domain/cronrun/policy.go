// Package cronrun holds the pure run-key and re-entry policy for tracked cron jobs.
package cronrun

import (
	"errors"
	"fmt"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

// DefaultStaleAfter is how long a started run may go without finishing before
// the next attempt for the same key treats it as abandoned.
const DefaultStaleAfter = 15 * time.Minute

// ErrInvalidStaleAfter indicates a non-positive staleness threshold.
var ErrInvalidStaleAfter = errors.New("stale-after must be positive")

// Action is what a caller should do with an existing run row for its key.
type Action string

const (
	// ActionSkip means the caller must not run the job.
	ActionSkip Action = "skip"
	// ActionReopen means the caller may take over the existing row and run.
	ActionReopen Action = "reopen"
)

// Resolution captures the outcome of checking an existing run row.
type Resolution struct {
	Action     Action
	SkipReason model.CronSkipReason
	// Age is now minus the existing row's start time.
	Age time.Duration
}

// Policy decides whether an existing run for a key blocks a new attempt.
type Policy struct {
	staleAfter time.Duration
}

// NewPolicy constructs a Policy. A zero staleAfter selects DefaultStaleAfter.
func NewPolicy(staleAfter time.Duration) (*Policy, error) {
	if staleAfter == 0 {
		staleAfter = DefaultStaleAfter
	}
	if staleAfter < 0 {
		return nil, ErrInvalidStaleAfter
	}
	return &Policy{staleAfter: staleAfter}, nil
}

// StaleAfter returns the configured staleness threshold.
func (p *Policy) StaleAfter() time.Duration {
	if p == nil {
		return DefaultStaleAfter
	}
	return p.staleAfter
}

// Resolve inspects the row that already occupies (job, key).
// A success row always blocks. A started row blocks until it is older than
// the staleness threshold. An error row is reopened so failed runs can retry.
func (p *Policy) Resolve(existing model.CronRun, now time.Time) Resolution {
	age := now.Sub(existing.StartedAt)
	res := Resolution{Age: age}

	switch existing.Status {
	case model.CronRunStatusSuccess:
		res.Action = ActionSkip
		res.SkipReason = model.CronSkipAlreadySucceeded
	case model.CronRunStatusStarted:
		if age > p.StaleAfter() {
			res.Action = ActionReopen
			return res
		}
		res.Action = ActionSkip
		res.SkipReason = model.CronSkipAlreadyRunning
	default:
		res.Action = ActionReopen
	}
	return res
}

// Bucket is the time granularity a job's run key is derived from.
type Bucket string

const (
	// BucketHourly keys runs by UTC hour.
	BucketHourly Bucket = "hourly"
	// BucketDaily keys runs by UTC date.
	BucketDaily Bucket = "daily"
	// BucketWeekly keys runs by ISO week.
	BucketWeekly Bucket = "weekly"
)

// Valid reports whether the bucket is known.
func (b Bucket) Valid() bool {
	return b == BucketHourly || b == BucketDaily || b == BucketWeekly
}

// RunKey derives the run key for t within the bucket. Keys are computed in UTC
// so that every instance agrees regardless of its local zone.
func RunKey(b Bucket, t time.Time) (string, error) {
	u := t.UTC()
	switch b {
	case BucketHourly:
		return u.Format("2006-01-02T15"), nil
	case BucketDaily:
		return u.Format("2006-01-02"), nil
	case BucketWeekly:
		year, week := u.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	default:
		return "", fmt.Errorf("unknown bucket %q", b)
	}
}
