package core

import (
	"context"
	"time"
)

// MarkerStore persists expiring presence markers.
type MarkerStore interface {
	// SetIfNotExists writes key with ttl unless it is already present and
	// reports whether this call created it.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	Health(ctx context.Context) error
}

// DefaultMarkerTTL bounds how long a marker survives when no TTL is configured.
const DefaultMarkerTTL = 24 * time.Hour

// MarkerCache records short-lived "seen" markers, e.g. Slack event ids that
// have already been handed to processing. A nil *MarkerCache, or one without a
// store, claims every id and never fails.
type MarkerCache struct {
	store  MarkerStore
	prefix string
	ttl    time.Duration
}

// MarkerCacheOptions bundles dependencies for NewMarkerCache.
type MarkerCacheOptions struct {
	Store  MarkerStore
	Prefix string
	TTL    time.Duration
}

// NewMarkerCache creates a MarkerCache.
func NewMarkerCache(opts MarkerCacheOptions) *MarkerCache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultMarkerTTL
	}
	return &MarkerCache{store: opts.Store, prefix: opts.Prefix, ttl: ttl}
}

// Enabled reports whether markers are persisted anywhere.
func (m *MarkerCache) Enabled() bool {
	return m != nil && m.store != nil
}

// Claim sets the marker for id and reports whether it was newly set.
func (m *MarkerCache) Claim(ctx context.Context, id string) (bool, error) {
	if !m.Enabled() || id == "" {
		return true, nil
	}
	return m.store.SetIfNotExists(ctx, m.prefix+id, []byte("1"), m.ttl)
}

// Release removes the marker so a later delivery is not short-circuited.
func (m *MarkerCache) Release(ctx context.Context, id string) error {
	if !m.Enabled() || id == "" {
		return nil
	}
	_, err := m.store.Delete(ctx, m.prefix+id)
	return err
}
