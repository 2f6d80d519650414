// Package failurenotifier fans cron failure notifications out to every configured sink.
package failurenotifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Service dispatches failure events to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger: logger.With("component", "failure_notifier"),
		sinks:  sinks,
	}
}

// NotifyCronFailure fans the payload out to all sinks and waits for them.
// Sink errors are logged, never returned: a notification failure must not
// change the outcome of the run it reports.
func (s *Service) NotifyCronFailure(ctx context.Context, payload notify.CronFailurePayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
		// A shutdown-interrupted run is retried on the next trigger.
		if payload.ErrorClass == "canceled" {
			payload.Severity = notify.SeverityWarning
		}
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendCronFailure(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"job", payload.JobName,
					"run_key", payload.RunKey,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
