package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/notify"
)

func TestNewClient_RequiresRoutingKey(t *testing.T) {
	_, err := NewClient(Config{RoutingKey: "  "})
	require.Error(t, err)
}

func TestBuildEvent(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key"})
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return fixed }

	ev := client.buildEvent(notify.CronFailurePayload{
		JobName:    "autosend",
		RunKey:     "2026-03-02T09",
		Error:      "boom",
		ErrorClass: "timeout",
		Severity:   "WARNING",
		Metadata:   map[string]string{"error": "ignored", "region": "us"},
	})

	assert.Equal(t, "autosend:2026-03-02T09", ev.DedupKey)
	assert.Equal(t, "trigger", ev.Action)
	assert.Equal(t, "Cron job autosend failed for run 2026-03-02T09", ev.Payload.Summary)
	assert.Equal(t, "warning", ev.Payload.Severity)
	assert.Equal(t, "intellect", ev.Payload.Source)
	assert.Equal(t, "cron", ev.Payload.Component)
	assert.Equal(t, "2026-03-02T09:00:00Z", ev.Payload.Timestamp)
	assert.Equal(t, "boom", ev.Payload.CustomDetails["error"], "metadata must not override canonical fields")
	assert.Equal(t, "us", ev.Payload.CustomDetails["region"])
}

func TestBuildEvent_UnknownJob(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key", Source: "prod-eu"})
	require.NoError(t, err)

	ev := client.buildEvent(notify.CronFailurePayload{})
	assert.Equal(t, "Cron job unknown failed for run unknown", ev.Payload.Summary)
	assert.Equal(t, notify.SeverityCritical, ev.Payload.Severity)
	assert.Equal(t, "prod-eu", ev.Payload.Source)
	assert.Empty(t, ev.DedupKey)
}

func TestSendCronFailure_PostsEvent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL})
	require.NoError(t, err)
	require.NoError(t, client.SendCronFailure(context.Background(), notify.CronFailurePayload{JobName: "rollup", RunKey: "2026-W10"}))

	assert.Equal(t, "rk", got["routing_key"])
	assert.Equal(t, "trigger", got["event_action"])
	assert.Equal(t, "rollup:2026-W10", got["dedup_key"])
}
