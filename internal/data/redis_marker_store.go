package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
)

// ErrEmptyMarkerKey is returned for operations on an empty key.
var ErrEmptyMarkerKey = errors.New("marker key cannot be empty")

// minMarkerTTL keeps a marker from being written without an expiry.
const minMarkerTTL = time.Second

// RedisMarkerStore keeps markers as plain Redis strings under Namespace, so
// several deployments can share one Redis.
type RedisMarkerStore struct {
	client    redis.UniversalClient
	namespace string
}

// RedisMarkerStoreOptions configures NewRedisMarkerStore.
type RedisMarkerStoreOptions struct {
	Namespace string
}

var _ core.MarkerStore = (*RedisMarkerStore)(nil)

// NewRedisMarkerStore wraps client.
func NewRedisMarkerStore(client redis.UniversalClient, opts RedisMarkerStoreOptions) *RedisMarkerStore {
	return &RedisMarkerStore{client: client, namespace: opts.Namespace}
}

func (s *RedisMarkerStore) key(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyMarkerKey
	}
	return s.namespace + key, nil
}

// SetIfNotExists issues SET NX PX so the write and its expiry land together.
// A ttl below one second is raised to one second.
func (s *RedisMarkerStore) SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	k, err := s.key(key)
	if err != nil {
		return false, err
	}
	ttl = max(ttl, minMarkerTTL)

	err = s.client.SetArgs(ctx, k, value, redis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("redis set nx %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key.
func (s *RedisMarkerStore) Delete(ctx context.Context, key string) (bool, error) {
	k, err := s.key(key)
	if err != nil {
		return false, err
	}
	n, err := s.client.Del(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis del %q: %w", key, err)
	}
	return n > 0, nil
}

// Health pings the server.
func (s *RedisMarkerStore) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
