package data

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

var slackEventCols = []string{"id", "event_id", "event_type", "team_id", "event_time", "payload", "received_at"}

func TestSlackEventRepo_InsertIfAbsent(t *testing.T) {
	received := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	insertSQL := regexp.QuoteMeta("ON CONFLICT (event_id) DO NOTHING")
	selectSQL := regexp.QuoteMeta("FROM slack_events WHERE event_id = $1")
	team := "T1"
	req := &model.CreateSlackEventRequest{
		EventID:   "Ev1",
		EventType: "message",
		TeamID:    &team,
		Payload:   []byte(`{"event_id":"Ev1"}`),
	}

	t.Run("first delivery creates", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(insertSQL).
			WithArgs("Ev1", "message", "T1", nil, []byte(`{"event_id":"Ev1"}`)).
			WillReturnRows(sqlmock.NewRows(slackEventCols).
				AddRow("row-1", "Ev1", "message", "T1", nil, []byte(`{"event_id":"Ev1"}`), received))

		ev, created, err := NewSlackEventRepo(db).InsertIfAbsent(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "row-1", ev.ID)
		require.NotNil(t, ev.TeamID)
		assert.Equal(t, "T1", *ev.TeamID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redelivery returns stored row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(insertSQL).WillReturnRows(sqlmock.NewRows(slackEventCols))
		mock.ExpectQuery(selectSQL).WithArgs("Ev1").
			WillReturnRows(sqlmock.NewRows(slackEventCols).
				AddRow("row-1", "Ev1", "message", nil, nil, []byte(`{"original":true}`), received))

		ev, created, err := NewSlackEventRepo(db).InsertIfAbsent(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "row-1", ev.ID)
		assert.JSONEq(t, `{"original":true}`, string(ev.Payload))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requires event id", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		_, _, err = NewSlackEventRepo(db).InsertIfAbsent(context.Background(), &model.CreateSlackEventRequest{})
		require.Error(t, err)
	})
}

func TestSlackEventRepo_GetByEventID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM slack_events WHERE event_id = $1")).
		WillReturnRows(sqlmock.NewRows(slackEventCols))

	_, err = NewSlackEventRepo(db).GetByEventID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSlackEventNotFound)
}

func TestSlackEventRepo_CountByType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY event_type")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"event_type", "count"}).
			AddRow("app_mention", 2).
			AddRow("message", 7))

	counts, err := NewSlackEventRepo(db).CountByType(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, []model.SlackEventTypeCount{
		{EventType: "app_mention", Count: 2},
		{EventType: "message", Count: 7},
	}, counts)
}
