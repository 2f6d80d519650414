// Package pagerduty raises PagerDuty incidents for failed cron runs.
package pagerduty

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config configures the PagerDuty sink. Only RoutingKey is required.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	Endpoint   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client triggers Events API v2 incidents.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	poster     notify.Poster
	now        func() time.Time
}

var _ notify.Sink = (*Client)(nil)

type event struct {
	RoutingKey string       `json:"routing_key"`
	Action     string       `json:"event_action"`
	DedupKey   string       `json:"dedup_key,omitempty"`
	Payload    eventPayload `json:"payload"`
}

type eventPayload struct {
	Summary       string         `json:"summary"`
	Severity      string         `json:"severity"`
	Source        string         `json:"source"`
	Component     string         `json:"component"`
	Timestamp     string         `json:"timestamp"`
	CustomDetails map[string]any `json:"custom_details"`
}

// NewClient validates cfg and fills defaults.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}
	return &Client{
		routingKey: key,
		source:     orDefault(cfg.Source, "intellect"),
		component:  orDefault(cfg.Component, "cron"),
		endpoint:   orDefault(cfg.Endpoint, APIEndpoint),
		poster:     notify.NewPoster("pagerduty", cfg.Client, cfg.Timeout, cfg.RetryLimit),
		now:        time.Now,
	}, nil
}

// SendCronFailure triggers an incident deduplicated on job and run key, so a
// retried run updates the open incident instead of paging twice.
func (c *Client) SendCronFailure(ctx context.Context, payload notify.CronFailurePayload) error {
	return c.poster.Post(ctx, c.endpoint, c.buildEvent(payload))
}

func (c *Client) buildEvent(p notify.CronFailurePayload) event {
	at := p.OccurredAt
	if at.IsZero() {
		at = c.now()
	}

	details := make(map[string]any, len(p.Metadata)+6)
	for k, v := range p.Metadata {
		details[k] = v
	}
	// Canonical fields win over metadata keys of the same name.
	details["job"] = p.JobName
	details["run_key"] = p.RunKey
	details["run_id"] = p.RunID
	details["tracked"] = p.Tracked
	details["error"] = p.Error
	details["error_class"] = p.ErrorClass

	return event{
		RoutingKey: c.routingKey,
		Action:     "trigger",
		DedupKey:   strings.Trim(p.JobName+":"+p.RunKey, ":"),
		Payload: eventPayload{
			Summary: fmt.Sprintf("Cron job %s failed for run %s",
				orDefault(p.JobName, "unknown"), orDefault(p.RunKey, "unknown")),
			Severity:      strings.ToLower(orDefault(p.Severity, notify.SeverityCritical)),
			Source:        c.source,
			Component:     c.component,
			Timestamp:     at.UTC().Format(time.RFC3339),
			CustomDetails: details,
		},
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
