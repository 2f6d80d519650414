package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler answers liveness checks. It never touches dependencies.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, healthBody{Status: "ok"})
}

// readinessHandler runs every check in parallel and answers 503 when any of
// them fails. Failed checks report their error.
func readinessHandler(deps map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			mu     sync.Mutex
			failed bool
			g      errgroup.Group
		)
		checks := make(map[string]string, len(deps))
		for name, check := range deps {
			g.Go(func() error {
				ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
				defer cancel()
				result := "ok"
				if err := check(ctx); err != nil {
					result = err.Error()
				}
				mu.Lock()
				defer mu.Unlock()
				checks[name] = result
				failed = failed || result != "ok"
				return nil
			})
		}
		_ = g.Wait()

		if failed {
			WriteJSON(w, http.StatusServiceUnavailable, healthBody{Status: "unavailable", Checks: checks})
			return
		}
		WriteJSON(w, http.StatusOK, healthBody{Status: "ok", Checks: checks})
	}
}
