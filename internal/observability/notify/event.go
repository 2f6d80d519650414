package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// CronFailurePayload captures the canonical data we emit when a tracked cron job fails.
type CronFailurePayload struct {
	JobName    string
	RunKey     string
	RunID      string
	Tracked    bool
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming cron failure notifications.
type Sink interface {
	SendCronFailure(ctx context.Context, payload CronFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload CronFailurePayload) error

// SendCronFailure implements the Sink interface.
func (f SinkFunc) SendCronFailure(ctx context.Context, payload CronFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
