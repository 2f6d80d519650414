package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/itsAR-VR/Community-Intellect-sub001/config"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/bootstrap"
)

type connectInfraOptions struct {
	Logger    *slog.Logger
	Config    *config.AppConfig
	WantRedis bool
}

// connectInfra opens the database and, when requested and enabled, Redis.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectInfra(ctx context.Context, opts *connectInfraOptions) (*sql.DB, redis.UniversalClient, error) {
	db, err := bootstrap.ConnectDB(ctx, opts.Config.Postgres, opts.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	if !opts.WantRedis || !opts.Config.Redis.Enabled {
		return db, nil, nil
	}

	client, err := bootstrap.ConnectRedis(ctx, opts.Config.Redis, opts.Logger)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close db: %w", closeErr))
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return db, client, nil
}

func closeInfra(db *sql.DB, redisClient redis.UniversalClient) error {
	var closeErr error
	if db != nil {
		if err := db.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}
