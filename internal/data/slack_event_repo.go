package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

const slackEventColumns = `id, event_id, event_type, team_id, event_time, payload, received_at`

// SlackEventRepo stores inbound Slack events. event_id is unique; the first
// delivery wins and redeliveries leave the stored row untouched.
type SlackEventRepo struct {
	DB *sql.DB
}

// NewSlackEventRepo creates a new SlackEventRepo.
func NewSlackEventRepo(db *sql.DB) *SlackEventRepo {
	return &SlackEventRepo{DB: db}
}

var _ core.SlackEventRepository = (*SlackEventRepo)(nil)

// InsertIfAbsent inserts the event or returns the existing row for its event id.
func (r *SlackEventRepo) InsertIfAbsent(
	ctx context.Context,
	req *model.CreateSlackEventRequest,
) (*model.SlackEvent, bool, error) {
	if req == nil || strings.TrimSpace(req.EventID) == "" {
		return nil, false, errors.New("event_id is required")
	}
	payload := []byte(req.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	var eventTime any
	if req.EventTime != nil {
		eventTime = req.EventTime.UTC()
	}

	query := `
		INSERT INTO slack_events (event_id, event_type, team_id, event_time, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING ` + slackEventColumns

	ev, err := scanSlackEvent(r.DB.QueryRowContext(ctx, query,
		req.EventID, req.EventType, req.TeamID, eventTime, payload))
	switch {
	case err == nil:
		return ev, true, nil
	case errors.Is(err, sql.ErrNoRows):
		// Conflict: DO NOTHING returns no row, so read the winner.
		existing, getErr := r.GetByEventID(ctx, req.EventID)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	default:
		return nil, false, fmt.Errorf("insert slack event: %w", err)
	}
}

// GetByEventID returns the stored event for an external event id.
func (r *SlackEventRepo) GetByEventID(ctx context.Context, eventID string) (*model.SlackEvent, error) {
	query := `SELECT ` + slackEventColumns + ` FROM slack_events WHERE event_id = $1`
	ev, err := scanSlackEvent(r.DB.QueryRowContext(ctx, query, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlackEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slack event: %w", err)
	}
	return ev, nil
}

// CountByType aggregates events received in [from, to) by inner event type.
func (r *SlackEventRepo) CountByType(ctx context.Context, from, to time.Time) ([]model.SlackEventTypeCount, error) {
	query := `
		SELECT event_type, COUNT(*) AS count
		FROM slack_events
		WHERE received_at >= $1 AND received_at < $2
		GROUP BY event_type
		ORDER BY event_type`

	rows, err := r.DB.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("count slack events: %w", err)
	}
	defer rows.Close()

	var out []model.SlackEventTypeCount
	for rows.Next() {
		var c model.SlackEventTypeCount
		if err = rows.Scan(&c.EventType, &c.Count); err != nil {
			return nil, fmt.Errorf("scan slack event count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type slackEventRow struct {
	ID         string
	EventID    string
	EventType  string
	TeamID     sql.NullString
	EventTime  sql.NullTime
	Payload    []byte
	ReceivedAt time.Time
}

func (r *slackEventRow) toDomain() *model.SlackEvent {
	ev := &model.SlackEvent{
		ID:         r.ID,
		EventID:    r.EventID,
		EventType:  r.EventType,
		Payload:    json.RawMessage(r.Payload),
		ReceivedAt: r.ReceivedAt,
	}
	if r.TeamID.Valid {
		team := r.TeamID.String
		ev.TeamID = &team
	}
	if r.EventTime.Valid {
		t := r.EventTime.Time
		ev.EventTime = &t
	}
	return ev
}

func scanSlackEvent(s rowScanner) (*model.SlackEvent, error) {
	var row slackEventRow
	if err := s.Scan(&row.ID, &row.EventID, &row.EventType, &row.TeamID, &row.EventTime, &row.Payload, &row.ReceivedAt); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}
