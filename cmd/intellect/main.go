// Command intellect serves the Slack Events webhook, the cron trigger
// endpoints and the member dashboard API, and runs the in-process scheduler.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/itsAR-VR/Community-Intellect-sub001/config"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // process entrypoint
	}

	logger := bootstrap.InitLogger(cfg.SlogLevel(), cfg.IsDev)
	if err := run(ctx, logger, &cfg); err != nil {
		logger.ErrorContext(ctx, "intellect exited", "error", err)
		os.Exit(1) //nolint:forbidigo // process entrypoint
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) error {
	logger.InfoContext(ctx, "starting intellect",
		"tenant_id", cfg.TenantID,
		"db", fmt.Sprintf("%s:%d/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Name),
		"redis_enabled", cfg.Redis.Enabled,
		"slack_messaging", cfg.Slack.MessagingEnabled(),
		"enabled_services", bootstrap.GetEnabledServices(cfg))

	if err := bootstrap.ValidateServiceConfig(cfg); err != nil {
		return err
	}

	in, err := openInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.close(); cerr != nil {
			logger.ErrorContext(ctx, "release infrastructure", "error", cerr)
		}
	}()

	if cfg.Postgres.RunMigrationsOnStart {
		if err := bootstrap.RunMigrations(ctx, in.db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "startup migrations disabled")
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      cfg,
		DB:          in.db,
		RedisClient: in.redis,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}

	return bootstrap.RunServicesWithShutdown(ctx, &bootstrap.ServiceOrchestrationConfig{
		Config:   cfg,
		Services: services,
		Logger:   logger,
	})
}

// infra holds the process-wide connections. redis is nil unless REDIS_ENABLED.
type infra struct {
	db    *sql.DB
	redis redis.UniversalClient
}

func openInfra(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*infra, error) {
	db, err := bootstrap.ConnectDB(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	in := &infra{db: db}

	if cfg.Redis.Enabled {
		if in.redis, err = bootstrap.ConnectRedis(ctx, cfg.Redis, logger); err != nil {
			return nil, errors.Join(fmt.Errorf("connect redis: %w", err), in.close())
		}
	}
	return in, nil
}

// close releases Redis before the database pool.
func (in *infra) close() error {
	var errs []error
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := in.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
