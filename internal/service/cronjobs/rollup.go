package cronjobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/cronrun"
)

// RollupJobName is the registry name of the daily Slack event rollup.
const RollupJobName = "slack-events-rollup"

// RollupSummary is stored as the run's details.
type RollupSummary struct {
	Day    string           `json:"day"`
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"by_type"`
}

// NewSlackEventsRollupJob builds the daily job that counts the previous UTC
// day's inbound Slack events by type.
func NewSlackEventsRollupJob(events core.SlackEventRepository, clock func() time.Time) (Job, error) {
	if events == nil {
		return Job{}, errors.New("SlackEventRepository is required")
	}
	if clock == nil {
		clock = time.Now
	}
	run := func(ctx context.Context) (any, error) {
		today := clock().UTC().Truncate(24 * time.Hour)
		from := today.AddDate(0, 0, -1)

		counts, err := events.CountByType(ctx, from, today)
		if err != nil {
			return nil, fmt.Errorf("count slack events: %w", err)
		}
		summary := RollupSummary{Day: from.Format(time.DateOnly), ByType: make(map[string]int64, len(counts))}
		for _, c := range counts {
			summary.ByType[c.EventType] = c.Count
			summary.Total += c.Count
		}
		return summary, nil
	}
	return Job{Name: RollupJobName, Bucket: cronrun.BucketDaily, Run: run}, nil
}
