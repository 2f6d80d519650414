package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/itsAR-VR/Community-Intellect-sub001/config"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/migrate"
)

const connectTimeout = 5 * time.Second

// ConnectDB opens the Postgres pool and verifies it with a ping.
func ConnectDB(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(5, maxOpen))
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close database: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.InfoContext(ctx, "database connected",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
		"max_open_conns", maxOpen,
	)
	return db, nil
}

// postgresDSN builds the connection URL; url.URL escapes credentials.
func postgresDSN(cfg config.DBConfig) string {
	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// ConnectRedis connects a direct, sentinel or cluster client depending on
// cfg and verifies it with a ping.
//
//nolint:ireturn // the concrete client type depends on the configured topology.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	topo, err := redisTopologyFor(cfg)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch topo.mode {
	case "cluster":
		client = redis.NewClusterClient(topo.opts.Cluster())
	case "sentinel":
		client = redis.NewFailoverClient(topo.opts.Failover())
	default:
		client = redis.NewClient(topo.opts.Simple())
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis (%s): %w", topo.mode, err)
	}

	logger.InfoContext(ctx, "redis connected", "mode", topo.mode, "addrs", topo.opts.Addrs)
	return client, nil
}

type redisTopology struct {
	mode string
	opts *redis.UniversalOptions
}

// redisTopologyFor translates RedisConfig into client options. REDIS_URI may be
// a bare host:port or a redis:// / rediss:// URL carrying credentials, DB and
// TLS; cluster mode falls back to it when REDIS_CLUSTER_NODES is empty.
func redisTopologyFor(cfg config.RedisConfig) (redisTopology, error) {
	switch {
	case cfg.UseCluster:
		opts := &redis.UniversalOptions{Addrs: compactAddrs(cfg.ClusterNodes), Password: cfg.Password}
		if len(opts.Addrs) == 0 {
			if err := applyRedisURI(opts, cfg.URI); err != nil {
				return redisTopology{}, fmt.Errorf("redis cluster: %w", err)
			}
			opts.DB = 0
		}
		if len(opts.Addrs) == 0 {
			return redisTopology{}, errors.New("redis cluster: at least one node address is required")
		}
		return redisTopology{mode: "cluster", opts: opts}, nil

	case cfg.UseSentinel:
		sentinels := compactAddrs(cfg.SentinelNodes)
		if len(sentinels) == 0 {
			return redisTopology{}, errors.New("redis sentinel: at least one sentinel node is required")
		}
		if strings.TrimSpace(cfg.SentinelMasterName) == "" {
			return redisTopology{}, errors.New("redis sentinel: master name is required")
		}
		return redisTopology{mode: "sentinel", opts: &redis.UniversalOptions{
			Addrs:            sentinels,
			MasterName:       cfg.SentinelMasterName,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
		}}, nil

	default:
		opts := &redis.UniversalOptions{Password: cfg.Password}
		if err := applyRedisURI(opts, cfg.URI); err != nil {
			return redisTopology{}, fmt.Errorf("redis: %w", err)
		}
		if len(opts.Addrs) == 0 {
			return redisTopology{}, errors.New("redis: REDIS_URI is required")
		}
		return redisTopology{mode: "direct", opts: opts}, nil
	}
}

// applyRedisURI fills address, credentials, DB and TLS from uri. URL
// credentials take precedence over REDIS_PASSWORD.
func applyRedisURI(opts *redis.UniversalOptions, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		opts.Addrs = []string{uri}
		return nil
	}

	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return fmt.Errorf("parse REDIS_URI: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

func compactAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.RunWithOptions(ctx, db, migrate.Options{Logger: logger}); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
