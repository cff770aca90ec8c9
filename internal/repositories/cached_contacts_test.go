package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prudhvinik1/storyline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDirectory struct {
	inner ContactDirectory
	calls int
	err   error
}

func (c *countingDirectory) Lookup(ctx context.Context, id string) (*models.Contact, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Lookup(ctx, id)
}

func TestCachedContactDirectory_CachesHitsAndMisses(t *testing.T) {
	backend := &countingDirectory{inner: NewMemoryContactDirectory(models.Contact{ID: "v1", Name: "Ada"})}
	cache := NewCachedContactDirectory(backend, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c, err := cache.Lookup(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", c.Name)

		_, err = cache.Lookup(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	}

	assert.Equal(t, 2, backend.calls, "each id should reach the backend once")
}

func TestCachedContactDirectory_Expiry(t *testing.T) {
	backend := &countingDirectory{inner: NewMemoryContactDirectory(models.Contact{ID: "v1", Name: "Ada"})}
	cache := NewCachedContactDirectory(backend, time.Minute)
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := cache.Lookup(ctx, "v1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = cache.Lookup(ctx, "v1")
	require.NoError(t, err)

	cache.Invalidate("v1")
	_, err = cache.Lookup(ctx, "v1")
	require.NoError(t, err)

	assert.Equal(t, 3, backend.calls)
}

func TestCachedContactDirectory_BackendErrorNotCached(t *testing.T) {
	backend := &countingDirectory{inner: NewMemoryContactDirectory(), err: errors.New("db down")}
	cache := NewCachedContactDirectory(backend, time.Minute)
	ctx := context.Background()

	_, err := cache.Lookup(ctx, "v1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = cache.Lookup(ctx, "v1")
	require.Error(t, err)
	assert.Equal(t, 2, backend.calls)
}

type countingRepository struct {
	*MemoryContactDirectory
	lookups int
}

func (c *countingRepository) Lookup(ctx context.Context, id string) (*models.Contact, error) {
	c.lookups++
	return c.MemoryContactDirectory.Lookup(ctx, id)
}

func TestCachedContactRepository_WritesInvalidate(t *testing.T) {
	// ARRANGE
	backend := &countingRepository{MemoryContactDirectory: NewMemoryContactDirectory()}
	repo := NewCachedContactRepository(backend, time.Hour)
	ctx := context.Background()

	_, err := repo.Lookup(ctx, "v3")
	require.ErrorIs(t, err, ErrNotFound, "miss is cached")

	// ACT
	require.NoError(t, repo.Upsert(ctx, &models.Contact{ID: "v3", Name: "Linus"}))

	// ASSERT
	contact, err := repo.Lookup(ctx, "v3")
	require.NoError(t, err)
	assert.Equal(t, "Linus", contact.Name)

	require.NoError(t, repo.Upsert(ctx, &models.Contact{ID: "v3", Name: "Linus T."}))
	contact, err = repo.Lookup(ctx, "v3")
	require.NoError(t, err)
	assert.Equal(t, "Linus T.", contact.Name)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, "v3"))
	_, err = repo.Lookup(ctx, "v3")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 4, backend.lookups)
}
