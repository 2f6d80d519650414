package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service/cronjobs"
)

// defaultCronTimeout bounds one HTTP-triggered job run.
const defaultCronTimeout = 10 * time.Minute

// CronHandlers exposes the cron trigger endpoints.
type CronHandlers struct {
	Registry *cronjobs.Registry
	Tracker  *service.CronRunTracker
	Clock    func() time.Time // Optional: defaults to time.Now
	Timeout  time.Duration    // Optional: defaults to 10m
	Logger   *slog.Logger     // Optional
}

// Trigger handles GET|POST /api/cron/{job}.
//
// The job keeps running if the caller disconnects; a half-finished run would
// otherwise stay "started" until it goes stale.
func (h *CronHandlers) Trigger(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("job"))
	if name == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job is required")})
		return
	}

	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if !validRunKey(key) {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_run_key",
			Err:     errors.New("key must be at most 64 characters of letters, digits, '-', '_', ':' or '.'"),
		})
		return
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultCronTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	defer cancel()

	out, err := h.Registry.Trigger(ctx, cronjobs.TriggerParams{
		Name:   name,
		RunKey: key,
		Now:    h.now(),
	})
	switch {
	case errors.Is(err, cronjobs.ErrUnknownJob):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "unknown_job", Err: err})
	case err != nil && out.Job == "":
		RenderError(ErrorOpts{W: w, R: r, Err: err, FallbackCode: "trigger_failed", Logger: h.logger()})
	case err != nil:
		WriteJSON(w, http.StatusInternalServerError, out)
	default:
		WriteJSON(w, http.StatusOK, out)
	}
}

// ListRuns handles GET /api/cron/runs?job=&limit=.
func (h *CronHandlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := ParseLimitOffset(r, defaultCronRunListLimit, maxCronRunListLimit)
	job := strings.TrimSpace(r.URL.Query().Get("job"))

	runs, err := h.Tracker.ListRecent(r.Context(), job, limit)
	if err != nil {
		if errors.Is(err, data.ErrCronRunsUnavailable) {
			WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "runs_unavailable", Err: err})
			return
		}
		RenderError(ErrorOpts{W: w, R: r, Err: err, FallbackCode: "list_failed", Logger: h.logger()})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"job":   job,
		"limit": limit,
	})
}

// Jobs handles GET /api/cron/jobs.
func (h *CronHandlers) Jobs(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"jobs": h.Registry.Names()})
}

// validRunKey accepts an empty key (derive from the job's bucket) or a short
// token such as "2026-03-02T10" or "backfill-1".
func validRunKey(key string) bool {
	if len(key) > 64 {
		return false
	}
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == ':', c == '.':
		default:
			return false
		}
	}
	return true
}

func (h *CronHandlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (h *CronHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
