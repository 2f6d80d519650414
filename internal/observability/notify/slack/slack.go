// Package slack delivers cron failure notifications to a Slack incoming webhook.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/notify"
)

// Config configures the webhook sink. Only WebhookURL is required.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// RunsURL links the job name to the run history endpoint, e.g.
	// https://intellect.example.com/api/cron/runs.
	RunsURL string
}

// Client posts mrkdwn messages to one webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	runsURL    *url.URL
	poster     notify.Poster
	now        func() time.Time
}

var _ notify.Sink = (*Client)(nil)

type message struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// NewClient validates cfg. An unparsable RunsURL disables run links.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = "intellect"
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   username,
		runsURL:    parseRunsURL(cfg.RunsURL),
		poster:     notify.NewPoster("slack webhook", cfg.Client, cfg.Timeout, cfg.RetryLimit),
		now:        time.Now,
	}, nil
}

func parseRunsURL(raw string) *url.URL {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

// SendCronFailure posts a formatted failure summary.
func (c *Client) SendCronFailure(ctx context.Context, payload notify.CronFailurePayload) error {
	return c.poster.Post(ctx, c.webhookURL, c.formatMessage(payload))
}

func (c *Client) formatMessage(p notify.CronFailurePayload) message {
	at := p.OccurredAt
	if at.IsZero() {
		at = c.now()
	}
	severity := p.Severity
	if severity == "" {
		severity = notify.SeverityCritical
	}
	tracking := "tracked"
	if !p.Tracked {
		tracking = "untracked (run table unavailable)"
	}

	lines := []string{"*Cron job failed* " + c.jobDisplay(p.JobName)}
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, fmt.Sprintf("• %s: %s", label, value))
		}
	}
	add("Severity", severity)
	add("Run key", p.RunKey)
	add("Run id", p.RunID)
	add("Tracking", tracking)
	add("Error class", p.ErrorClass)
	add("Error", mrkdwnEscaper.Replace(p.Error))

	if len(p.Metadata) > 0 {
		lines = append(lines, "• Metadata:")
		keys := make([]string, 0, len(p.Metadata))
		for k := range p.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("    • %s: %s", k, p.Metadata[k]))
		}
	}
	add("Timestamp", at.UTC().Format(time.RFC3339))

	return message{Text: strings.Join(lines, "\n"), Username: c.username, Channel: c.channel}
}

// jobDisplay renders the job name, linked to its run history when configured.
func (c *Client) jobDisplay(job string) string {
	job = strings.TrimSpace(job)
	if job == "" {
		return "`unknown`"
	}
	if c.runsURL == nil {
		return "`" + mrkdwnEscaper.Replace(job) + "`"
	}
	link := *c.runsURL
	q := link.Query()
	q.Set("job", job)
	link.RawQuery = q.Encode()
	return fmt.Sprintf("<%s|%s>", link.String(), mrkdwnEscaper.Replace(job))
}
