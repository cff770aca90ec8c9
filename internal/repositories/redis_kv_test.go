package repositories

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedisKeyValueStore_SetGet tests a value round trip through Redis
func TestRedisKeyValueStore_SetGet(t *testing.T) {
	client, mr := getTestRedisClient(t)
	store := NewRedisKeyValueStore(client, "stories:")
	ctx := context.Background()

	// ACT: Store a value
	err := store.Set(ctx, "status_views_s1", `[{"id":"v1"}]`)

	// ASSERT: Should be readable and namespaced in Redis
	require.NoError(t, err)
	value, found, err := store.Get(ctx, "status_views_s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"v1"}]`, value)
	assert.True(t, mr.Exists("stories:status_views_s1"), "key should carry the namespace")
	assert.Zero(t, mr.TTL("stories:status_views_s1"), "value should not expire")
}

// TestRedisKeyValueStore_GetMissing tests that a missing key is not an error
func TestRedisKeyValueStore_GetMissing(t *testing.T) {
	client, _ := getTestRedisClient(t)
	store := NewRedisKeyValueStore(client, "stories:")

	value, found, err := store.Get(context.Background(), "nope")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

// TestRedisKeyValueStore_ListKeys tests that only namespaced keys are listed
func TestRedisKeyValueStore_ListKeys(t *testing.T) {
	client, mr := getTestRedisClient(t)
	store := NewRedisKeyValueStore(client, "stories:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "status_views_a", "[]"))
	require.NoError(t, store.Set(ctx, "user_status_u1", "{}"))
	require.NoError(t, mr.Set("other-app:key", "x"))

	keys, err := store.ListKeys(ctx)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"status_views_a", "user_status_u1"}, keys)
}

// TestRedisKeyValueStore_RemoveMany tests bulk deletion
func TestRedisKeyValueStore_RemoveMany(t *testing.T) {
	client, _ := getTestRedisClient(t)
	store := NewRedisKeyValueStore(client, "stories:")
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Set(ctx, k, "v"))
	}

	// ACT: Remove two of three keys
	err := store.RemoveMany(ctx, []string{"a", "c"})

	// ASSERT: Only b remains
	require.NoError(t, err)
	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)

	// Empty input is a no-op
	assert.NoError(t, store.RemoveMany(ctx, nil))
}

// TestRedisKeyValueStore_Remove tests single deletion
func TestRedisKeyValueStore_Remove(t *testing.T) {
	client, _ := getTestRedisClient(t)
	store := NewRedisKeyValueStore(client, "stories:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "v"))
	require.NoError(t, store.Remove(ctx, "a"))

	_, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

// TestRedisKeyValueStore_ServerDown tests that connection failures surface as errors
func TestRedisKeyValueStore_ServerDown(t *testing.T) {
	client, mr := getTestRedisClient(t)
	store := NewRedisKeyValueStore(client, "stories:")
	mr.Close()

	_, _, err := store.Get(context.Background(), "a")
	assert.Error(t, err)
}

// Helper functions for test setup

// getTestRedisClient returns a client backed by an in-process Redis server
func getTestRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}
