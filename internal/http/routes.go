// Package httpx provides the HTTP surface: the Slack Events API webhook, cron
// triggers, and the dashboard's member and outreach endpoints.
package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/metrics"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service/cronjobs"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	TenantID    string
	SlackEvents *service.SlackEventService
	Cron        *cronjobs.Registry
	Tracker     *service.CronRunTracker
	Members     *service.MemberService
	Autosend    *service.AutosendService
	Outreach    *service.OutreachService
	// CronSecret guards the cron and dashboard endpoints.
	CronSecret string
	// CronTimeout bounds HTTP-triggered job runs; zero selects the handler default.
	CronTimeout time.Duration
	// Metrics and Gatherer are optional; without a Gatherer /metrics is not served.
	Metrics  *metrics.Recorder
	Gatherer prometheus.Gatherer
	// Readiness backs GET /readyz; without any checks the endpoint only reports the process is up.
	Readiness map[string]ReadinessCheck
	Logger    *slog.Logger // Optional
}

// NewRouter creates the HTTP handler with logging, panic recovery, request ids
// and per-route metrics.
//
// Routes whose service is nil are not registered.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(services.Readiness))
	if services.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(services.Gatherer))
	}

	if services.SlackEvents != nil {
		registerSlackRoutes(mux, &SlackEventHandlers{Svc: services.SlackEvents, Logger: logger})
	}

	protect := RequireBearer(services.CronSecret)
	if services.Cron != nil && services.Tracker != nil {
		registerCronRoutes(mux, &CronHandlers{
			Registry: services.Cron,
			Tracker:  services.Tracker,
			Timeout:  services.CronTimeout,
			Logger:   logger,
		}, protect)
	}
	if services.Members != nil && services.Autosend != nil && services.Outreach != nil {
		registerMemberRoutes(mux, &MemberHandlers{
			TenantID: services.TenantID,
			Members:  services.Members,
			Gate:     services.Autosend,
			Outreach: services.Outreach,
			Logger:   logger,
		}, protect)
	}

	// Metrics must sit directly on the mux: the matched pattern is only
	// visible on the request value the mux itself received.
	return Chain(mux,
		Recover(logger),
		RequestID(),
		Logging(logger),
		Metrics(services.Metrics),
	)
}

func registerSlackRoutes(mux *http.ServeMux, h *SlackEventHandlers) {
	mux.HandleFunc("POST /api/slack/events", h.Events)
}

func registerCronRoutes(mux *http.ServeMux, h *CronHandlers, protect Middleware) {
	mux.Handle("GET /api/cron/runs", protect(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/cron/jobs", protect(http.HandlerFunc(h.Jobs)))
	mux.Handle("GET /api/cron/{job}", protect(http.HandlerFunc(h.Trigger)))
	mux.Handle("POST /api/cron/{job}", protect(http.HandlerFunc(h.Trigger)))
}

func registerMemberRoutes(mux *http.ServeMux, h *MemberHandlers, protect Middleware) {
	mux.Handle("GET /api/members", protect(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/members/{id}", protect(http.HandlerFunc(h.Get)))
	mux.Handle("PATCH /api/members/{id}/contact-state", protect(http.HandlerFunc(h.UpdateContactState)))
	mux.Handle("GET /api/members/{id}/autosend", protect(http.HandlerFunc(h.Autosend)))
	mux.Handle("POST /api/members/{id}/messages", protect(http.HandlerFunc(h.SendMessage)))
	mux.Handle("POST /api/outbound", protect(http.HandlerFunc(h.QueueOutbound)))
}
