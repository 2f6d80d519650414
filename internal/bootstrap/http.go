package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/config"
	httpx "github.com/itsAR-VR/Community-Intellect-sub001/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the router and an *http.Server for it. The caller
// starts and stops the server.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	readiness := make(map[string]httpx.ReadinessCheck, len(cfg.Services.Readiness))
	for name, check := range cfg.Services.Readiness {
		readiness[name] = check
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		TenantID:    appCfg.TenantID,
		SlackEvents: cfg.Services.SlackEvents,
		Cron:        cfg.Services.Registry,
		Tracker:     cfg.Services.Tracker,
		Members:     cfg.Services.Members,
		Autosend:    cfg.Services.Autosend,
		Outreach:    cfg.Services.Outreach,
		CronSecret:  appCfg.Auth.CronSecret,
		CronTimeout: appCfg.Cron.JobTimeout,
		Metrics:     cfg.Services.Observability.Metrics,
		Gatherer:    cfg.Services.Observability.Gatherer,
		Readiness:   readiness,
		Logger:      logger,
	})

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: appCfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("HTTP server stopped")
	return nil
}
