// Package metrics exposes Prometheus collectors for cron runs, webhook deliveries,
// autosend decisions and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess   = "success"
	ResultError     = "error"
	ResultSkipped   = "skipped"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
	ResultInvalid   = "invalid"
	ResultChallenge = "challenge"
)

const namespace = "intellect"

// Recorder owns the collectors. A nil *Recorder discards every observation.
type Recorder struct {
	cronRuns      *prometheus.CounterVec
	cronDuration  *prometheus.HistogramVec
	cronErrors    *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	autosend      *prometheus.CounterVec
	outbound      *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// NewRecorder builds the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		cronRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_runs_total",
			Help:      "Cron job invocations by outcome (success, error, skipped).",
		}, []string{"job", "outcome"}),
		cronDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cron_run_duration_seconds",
			Help:      "Wall time of executed cron job bodies.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"job"}),
		cronErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_run_errors_total",
			Help:      "Failed cron job bodies by error class.",
		}, []string{"job", "error_class"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slack_webhook_deliveries_total",
			Help:      "Inbound Slack event deliveries by result.",
		}, []string{"result"}),
		autosend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosend_decisions_total",
			Help:      "Autosend gate decisions.",
		}, []string{"allowed", "reason"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_messages_total",
			Help:      "Outbound DM delivery attempts by origin and result.",
		}, []string{"origin", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "code"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	if reg == nil {
		return r, nil
	}
	for _, c := range []prometheus.Collector{
		r.cronRuns, r.cronDuration, r.cronErrors, r.webhooks,
		r.autosend, r.outbound, r.httpRequests, r.httpDurations,
	} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	return r, nil
}

// CronRun captures one cron invocation for metric emission.
type CronRun struct {
	Job      string
	Outcome  string
	Duration time.Duration
	Err      error
}

// ObserveCronRun records a cron invocation.
func (r *Recorder) ObserveCronRun(in CronRun) {
	if r == nil {
		return
	}
	r.cronRuns.WithLabelValues(in.Job, in.Outcome).Inc()
	if in.Duration > 0 {
		r.cronDuration.WithLabelValues(in.Job).Observe(in.Duration.Seconds())
	}
	if in.Err != nil && in.Outcome == ResultError {
		r.cronErrors.WithLabelValues(in.Job, obserrors.Classify(in.Err)).Inc()
	}
}

// ObserveWebhook records an inbound Slack delivery result.
func (r *Recorder) ObserveWebhook(result string) {
	if r == nil {
		return
	}
	r.webhooks.WithLabelValues(result).Inc()
}

// ObserveAutosend records a gate decision. Reasons are a fixed set of strings.
func (r *Recorder) ObserveAutosend(allowed bool, reason string) {
	if r == nil {
		return
	}
	r.autosend.WithLabelValues(strconv.FormatBool(allowed), reason).Inc()
}

// ObserveOutbound records a delivery attempt of an outbound message.
func (r *Recorder) ObserveOutbound(origin, result string) {
	if r == nil {
		return
	}
	r.outbound.WithLabelValues(origin, result).Inc()
}

// ObserveHTTP records a served request. route is the mux pattern, never the raw path.
func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDurations.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
