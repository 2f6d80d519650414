package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/notify"
)

func TestServiceNotifyCronFailure(t *testing.T) {
	ctx := context.Background()

	var (
		mu       sync.Mutex
		received []notify.CronFailurePayload
	)
	capture := notify.SinkFunc(func(_ context.Context, payload notify.CronFailurePayload) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, payload)
		return nil
	})
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Name: "a", Sink: capture},
			{Name: "b", Sink: capture},
			{Name: "nil"},
		},
	})

	svc.NotifyCronFailure(ctx, notify.CronFailurePayload{JobName: "autosend", RunKey: "k"})

	if len(received) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected severity to default to critical, got %s", received[0].Severity)
	}
}

func TestServiceDowngradesCanceledRuns(t *testing.T) {
	var got notify.CronFailurePayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{{
			Name: "capture",
			Sink: notify.SinkFunc(func(_ context.Context, p notify.CronFailurePayload) error {
				got = p
				return nil
			}),
		}},
	})

	svc.NotifyCronFailure(context.Background(), notify.CronFailurePayload{JobName: "autosend", ErrorClass: "canceled"})
	if got.Severity != notify.SeverityWarning {
		t.Fatalf("expected warning severity, got %q", got.Severity)
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
	var nilSvc *Service
	nilSvc.NotifyCronFailure(context.Background(), notify.CronFailurePayload{})
}

func TestServiceLogsErrors(t *testing.T) {
	// Ensure we don't panic when sink returns an error.
	svc := NewService(Options{
		Sinks: []SinkRegistration{{
			Name: "broken",
			Sink: notify.SinkFunc(func(context.Context, notify.CronFailurePayload) error {
				return errors.New("boom")
			}),
		}},
	})
	svc.NotifyCronFailure(context.Background(), notify.CronFailurePayload{JobName: "autosend"})
}
