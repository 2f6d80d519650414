package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/testutil"
)

func TestRedisMarkerStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)
	ns := "test:" + t.Name() + ":"
	store := NewRedisMarkerStore(client, RedisMarkerStoreOptions{Namespace: ns})
	ctx := context.Background()

	t.Run("claims a key once", func(t *testing.T) {
		ok, err := store.SetIfNotExists(ctx, "slack:event:Ev1", []byte("1"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.SetIfNotExists(ctx, "slack:event:Ev1", []byte("1"), time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		ttl := client.TTL(ctx, ns+"slack:event:Ev1").Val()
		assert.Positive(t, ttl)
		assert.LessOrEqual(t, ttl, time.Minute)
	})

	t.Run("zero ttl still expires", func(t *testing.T) {
		ok, err := store.SetIfNotExists(ctx, "slack:event:Ev2", []byte("1"), 0)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Positive(t, client.TTL(ctx, ns+"slack:event:Ev2").Val())
	})

	t.Run("delete frees the key", func(t *testing.T) {
		deleted, err := store.Delete(ctx, "slack:event:Ev1")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = store.Delete(ctx, "slack:event:Ev1")
		require.NoError(t, err)
		assert.False(t, deleted)

		ok, err := store.SetIfNotExists(ctx, "slack:event:Ev1", []byte("1"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, store.Health(ctx))
	})
}

func TestRedisMarkerStore_EmptyKey(t *testing.T) {
	// Validation fails before any round trip, so no server is needed.
	store := NewRedisMarkerStore(nil, RedisMarkerStoreOptions{})
	ctx := context.Background()

	_, err := store.SetIfNotExists(ctx, "", []byte("1"), time.Minute)
	require.ErrorIs(t, err, ErrEmptyMarkerKey)
	_, err = store.Delete(ctx, "")
	require.ErrorIs(t, err, ErrEmptyMarkerKey)
}
