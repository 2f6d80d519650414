package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsAR-VR/Community-Intellect-sub001/config"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service/cronjobs"
)

type stubMessenger struct{}

func (stubMessenger) OpenDM(context.Context, string) (string, error) { return "D1", nil }

func (stubMessenger) PostMessage(context.Context, string, string) (string, error) {
	return "1700000000.000100", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAppConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		TenantID: "default",
		Services: "http,cron-trigger",
		Auth: config.AuthConfig{
			SlackSigningSecret: "signing-secret",
			CronSecret:         "cron-secret",
		},
		HTTP: config.HTTPConfig{Addr: ":0", BaseURL: "https://intellect.example.com"},
		Cron: config.CronConfig{
			StaleAfter: 15 * time.Minute,
			Schedules:  "autosend=0 * * * *;slack-events-rollup=5 0 * * *",
			JobTimeout: time.Minute,
		},
		Autosend: config.AutosendConfig{Cooldown: 24 * time.Hour, BatchSize: 10, Concurrency: 2},
		Observability: config.ObservabilityConfig{
			Metrics: config.ObservabilityMetricsConfig{Enabled: true},
		},
	}
	cfg.Sanitize()
	return cfg
}

func newTestServices(t *testing.T, cfg *config.AppConfig) ServiceContainer {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	services, err := NewServices(&ServiceDeps{
		Config:    cfg,
		DB:        db,
		Messenger: stubMessenger{},
		Logger:    testLogger(),
	})
	require.NoError(t, err)
	return services
}

func TestNewServices_WiresJobsAndServices(t *testing.T) {
	services := newTestServices(t, testAppConfig())

	require.NotNil(t, services.Registry)
	assert.Equal(t, []string{cronjobs.AutosendJobName, cronjobs.RollupJobName}, services.Registry.Names())
	assert.NotNil(t, services.Tracker)
	assert.NotNil(t, services.SlackEvents)
	assert.NotNil(t, services.Members)
	assert.NotNil(t, services.Autosend)
	assert.NotNil(t, services.Outreach)
	assert.NotNil(t, services.Observability.Metrics)
	assert.NotNil(t, services.Observability.Gatherer)
	assert.False(t, services.Observability.FailureNotifier.Enabled())
}

func TestNewServices_WithoutSigningSecretOrMetrics(t *testing.T) {
	cfg := testAppConfig()
	cfg.Services = "cron-trigger"
	cfg.Auth = config.AuthConfig{}
	cfg.Observability.Metrics.Enabled = false

	services := newTestServices(t, cfg)

	assert.Nil(t, services.SlackEvents)
	assert.Nil(t, services.Observability.Metrics)
	assert.Nil(t, services.Observability.Gatherer)
	assert.NotNil(t, services.Registry)
}

func TestNewServices_RequiresDeps(t *testing.T) {
	_, err := NewServices(nil)
	require.Error(t, err)

	_, err = NewServices(&ServiceDeps{Config: testAppConfig()})
	require.ErrorContains(t, err, "database is required")
}

func TestBuildFailureNotifier(t *testing.T) {
	disabled := buildFailureNotifier(testLogger(), config.ObservabilityNotificationsConfig{
		Enabled: false,
		Slack:   config.SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.slack.com/services/x"},
	})
	assert.False(t, disabled.Enabled())

	enabled := buildFailureNotifier(testLogger(), config.ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    time.Second,
		RetryLimit: 1,
		Slack:      config.SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.slack.com/services/x"},
		PagerDuty:  config.PagerDutyNotificationConfig{Enabled: true, RoutingKey: "rk", Source: "intellect", Component: "cron"},
	})
	assert.True(t, enabled.Enabled())
}

func TestBuildMessenger_DisabledWithoutToken(t *testing.T) {
	messenger, err := buildMessenger(config.SlackConfig{}, testLogger())
	require.NoError(t, err)

	_, err = messenger.OpenDM(context.Background(), "U1")
	require.ErrorIs(t, err, ErrMessagingDisabled)
	_, err = messenger.PostMessage(context.Background(), "D1", "hi")
	require.ErrorIs(t, err, ErrMessagingDisabled)
}

func TestNewCronTrigger(t *testing.T) {
	cfg := testAppConfig()
	services := newTestServices(t, cfg)

	runner, err := NewCronTrigger(CronTriggerConfig{Registry: services.Registry, Cron: cfg.Cron, Logger: testLogger()})
	require.NoError(t, err)
	assert.NotNil(t, runner)

	unknown := cfg.Cron
	unknown.Schedules = "weekly-digest=0 9 * * 1"
	_, err = NewCronTrigger(CronTriggerConfig{Registry: services.Registry, Cron: unknown})
	require.ErrorIs(t, err, cronjobs.ErrUnknownJob)

	invalid := cfg.Cron
	invalid.Schedules = "autosend=every hour"
	_, err = NewCronTrigger(CronTriggerConfig{Registry: services.Registry, Cron: invalid})
	require.Error(t, err)

	_, err = NewCronTrigger(CronTriggerConfig{Cron: cfg.Cron})
	require.Error(t, err)
}

func TestNewHTTPServer_ServesRouter(t *testing.T) {
	cfg := testAppConfig()
	services := newTestServices(t, cfg)

	server, err := NewHTTPServer(&HTTPServerConfig{Config: cfg, Services: services, Logger: testLogger()})
	require.NoError(t, err)
	assert.Equal(t, ":0", server.Addr)
	assert.Equal(t, cfg.HTTP.ReadHeaderTimeout, server.ReadHeaderTimeout)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cron/jobs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cron/jobs", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), cronjobs.AutosendJobName)
}

func TestRunServicesWithShutdown_StopsOnCancel(t *testing.T) {
	cfg := testAppConfig()
	cfg.Services = "cron-trigger"
	services := newTestServices(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunServicesWithShutdown(ctx, &ServiceOrchestrationConfig{
			Config:   cfg,
			Services: services,
			Logger:   testLogger(),
		})
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("services did not stop after cancel")
	}
}
