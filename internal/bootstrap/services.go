package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/itsAR-VR/Community-Intellect-sub001/config"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/metrics"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/notify/pagerduty"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/notify/slack"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service/cronjobs"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service/failurenotifier"
)

// slackEventMarkerPrefix namespaces redelivery markers in Redis.
const slackEventMarkerPrefix = "slack:event:"

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Tracker  *service.CronRunTracker
	Registry *cronjobs.Registry
	// SlackEvents is nil when no signing secret is configured (cron-trigger only deployments).
	SlackEvents   *service.SlackEventService
	Members       *service.MemberService
	Autosend      *service.AutosendService
	Outreach      *service.OutreachService
	Observability ObservabilityContainer
	// Readiness backs the readiness endpoint, keyed by dependency name.
	Readiness map[string]func(context.Context) error
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	// Metrics and Gatherer are nil when METRICS_ENABLED=false.
	Metrics         *metrics.Recorder
	Gatherer        prometheus.Gatherer
	FailureNotifier *failurenotifier.Service
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig     // Required
	DB          *sql.DB               // Required
	RedisClient redis.UniversalClient // Optional: enables the Slack redelivery marker cache
	Messenger   core.SlackMessenger   // Optional: overrides the Slack Web API client
	Clock       func() time.Time      // Optional: defaults to time.Now
	Logger      *slog.Logger          // Optional
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	CronRuns    *data.CronRunRepo
	SlackEvents *data.SlackEventRepo
	Members     *data.MemberRepo
	Threads     *data.DMThreadRepo
	Outbound    *data.OutboundMessageRepo
	// Markers stays a nil interface without Redis so MarkerCache reports disabled.
	Markers core.MarkerStore
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, rdb redis.UniversalClient, logger *slog.Logger) *serviceRepositories {
	tp := &data.RealTimeProvider{}
	repos := &serviceRepositories{
		CronRuns:    data.NewCronRunRepo(db, logger),
		SlackEvents: data.NewSlackEventRepo(db),
		Members:     data.NewMemberRepo(db, tp),
		Threads:     data.NewDMThreadRepo(db, tp),
		Outbound:    data.NewOutboundMessageRepo(db),
	}
	if rdb != nil {
		repos.Markers = data.NewRedisMarkerStore(rdb, data.RedisMarkerStoreOptions{Namespace: "intellect:"})
	}
	return repos
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg *config.AppConfig) (ObservabilityContainer, error) {
	var out ObservabilityContainer
	if cfg.Observability.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rec, err := metrics.NewRecorder(reg)
		if err != nil {
			return out, fmt.Errorf("register metrics: %w", err)
		}
		out.Metrics = rec
		out.Gatherer = reg
	}

	notifications := cfg.Observability.Notifications
	if notifications.Slack.RunsURL == "" && cfg.HTTP.BaseURL != "" {
		notifications.Slack.RunsURL = strings.TrimRight(cfg.HTTP.BaseURL, "/") + "/api/cron/runs"
	}
	out.FailureNotifier = buildFailureNotifier(logger, notifications)
	return out, nil
}

// NewServices wires repositories, domain services and cron jobs.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	cfg := deps.Config

	observability, err := buildObservability(logger, cfg)
	if err != nil {
		return ServiceContainer{}, err
	}
	repos := buildRepositories(deps.DB, deps.RedisClient, logger)

	messenger := deps.Messenger
	if messenger == nil {
		if messenger, err = buildMessenger(cfg.Slack, logger); err != nil {
			return ServiceContainer{}, err
		}
	}

	container := ServiceContainer{
		Observability: observability,
		Readiness:     map[string]func(context.Context) error{"postgres": deps.DB.PingContext},
	}
	if repos.Markers != nil {
		container.Readiness["redis"] = repos.Markers.Health
	}
	if err = buildDomainServices(&container, domainServiceDeps{
		cfg:       cfg,
		repos:     repos,
		messenger: messenger,
		clock:     clock,
		logger:    logger,
	}); err != nil {
		return ServiceContainer{}, err
	}
	if err = buildCronJobs(&container, cfg, repos, clock, logger); err != nil {
		return ServiceContainer{}, err
	}
	return container, nil
}

type domainServiceDeps struct {
	cfg       *config.AppConfig
	repos     *serviceRepositories
	messenger core.SlackMessenger
	clock     func() time.Time
	logger    *slog.Logger
}

func buildDomainServices(c *ServiceContainer, d domainServiceDeps) error {
	rec := c.Observability.Metrics

	tracker, err := service.NewCronRunTracker(service.CronRunTrackerOptions{
		Repo:       d.repos.CronRuns,
		StaleAfter: d.cfg.Cron.StaleAfter,
		Logger:     d.logger,
		Now:        d.clock,
	})
	if err != nil {
		return fmt.Errorf("cron run tracker: %w", err)
	}
	c.Tracker = tracker

	if d.cfg.Auth.SlackSigningSecret != "" {
		c.SlackEvents, err = service.NewSlackEventService(service.SlackEventServiceOptions{
			Events:  d.repos.SlackEvents,
			Threads: d.repos.Threads,
			Markers: core.NewMarkerCache(core.MarkerCacheOptions{
				Store:  d.repos.Markers,
				Prefix: slackEventMarkerPrefix,
				TTL:    d.cfg.Slack.EventMarkerTTL,
			}),
			SigningSecret: d.cfg.Auth.SlackSigningSecret,
			Metrics:       rec,
			Logger:        d.logger,
		})
		if err != nil {
			return fmt.Errorf("slack event service: %w", err)
		}
	}

	if c.Members, err = service.NewMemberService(service.MemberServiceOptions{
		Repo:   d.repos.Members,
		Logger: d.logger,
	}); err != nil {
		return fmt.Errorf("member service: %w", err)
	}

	if c.Autosend, err = service.NewAutosendService(service.AutosendServiceOptions{
		Members:  d.repos.Members,
		Threads:  d.repos.Threads,
		Cooldown: d.cfg.Autosend.Cooldown,
		Metrics:  rec,
		Logger:   d.logger,
	}); err != nil {
		return fmt.Errorf("autosend service: %w", err)
	}

	if c.Outreach, err = service.NewOutreachService(service.OutreachServiceOptions{
		Repos: service.OutreachRepos{
			Members:  d.repos.Members,
			Threads:  d.repos.Threads,
			Outbound: d.repos.Outbound,
		},
		Messenger: d.messenger,
		Clock:     d.clock,
		Metrics:   rec,
		Logger:    d.logger,
	}); err != nil {
		return fmt.Errorf("outreach service: %w", err)
	}
	return nil
}

func buildCronJobs(
	c *ServiceContainer,
	cfg *config.AppConfig,
	repos *serviceRepositories,
	clock func() time.Time,
	logger *slog.Logger,
) error {
	registry, err := cronjobs.NewRegistry(cronjobs.RegistryOptions{
		Tracker:  c.Tracker,
		Notifier: c.Observability.FailureNotifier,
		Metrics:  c.Observability.Metrics,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("cron registry: %w", err)
	}

	autosendJob, err := cronjobs.NewAutosendJob(cronjobs.AutosendJobOptions{
		TenantID:    cfg.TenantID,
		Outbound:    repos.Outbound,
		Members:     repos.Members,
		Gate:        c.Autosend,
		Outreach:    c.Outreach,
		BatchSize:   cfg.Autosend.BatchSize,
		Concurrency: cfg.Autosend.Concurrency,
		Clock:       clock,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("autosend job: %w", err)
	}
	rollupJob, err := cronjobs.NewSlackEventsRollupJob(repos.SlackEvents, clock)
	if err != nil {
		return fmt.Errorf("slack events rollup job: %w", err)
	}
	for _, job := range []cronjobs.Job{autosendJob, rollupJob} {
		if err = registry.Register(job); err != nil {
			return err
		}
	}
	c.Registry = registry
	return nil
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: baseLogger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
			RunsURL:    cfg.Slack.RunsURL,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: baseLogger,
		Sinks:  sinks,
	})
}

// ServiceOrchestrationConfig contains everything needed to run the enabled services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and blocks until a
// shutdown signal arrives, ctx is canceled, or a service fails. The first
// failure cancels the others.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		server, buildErr := NewHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
		if buildErr != nil {
			return buildErr
		}
		g.Go(func() error {
			logger.Info("starting HTTP server", "addr", server.Addr)
			if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", serveErr)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return ShutdownHTTPServer(ShutdownConfig{
				Server:  server,
				Timeout: cfg.Config.HTTP.ShutdownTimeout,
				Logger:  logger,
			})
		})
	}

	if enabled[config.ServiceModeCronTrigger] {
		runner, buildErr := NewCronTrigger(CronTriggerConfig{
			Registry: cfg.Services.Registry,
			Cron:     cfg.Config.Cron,
			Logger:   logger,
		})
		if buildErr != nil {
			return fmt.Errorf("cron trigger: %w", buildErr)
		}
		g.Go(func() error { return runner.Run(gctx) })
	}

	err = g.Wait()
	logger.Info("services stopped")
	return err
}
