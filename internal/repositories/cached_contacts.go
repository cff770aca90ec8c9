package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prudhvinik1/storyline/internal/models"
)

const DefaultContactCacheTTL = 5 * time.Minute

type cachedContact struct {
	contact  *models.Contact
	cachedAt time.Time
}

// CachedContactDirectory memoizes lookups against a slower directory such
// as PostgresContactRepository. Misses are cached as well so an unknown
// viewer does not hit the backend on every view.
type CachedContactDirectory struct {
	backend ContactDirectory
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]cachedContact
}

func NewCachedContactDirectory(backend ContactDirectory, ttl time.Duration) *CachedContactDirectory {
	if ttl <= 0 {
		ttl = DefaultContactCacheTTL
	}
	return &CachedContactDirectory{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedContact),
	}
}

func (c *CachedContactDirectory) Lookup(ctx context.Context, id string) (*models.Contact, error) {
	now := c.now()

	c.mu.Lock()
	entry, ok := c.entries[id]
	c.mu.Unlock()

	if ok && now.Sub(entry.cachedAt) < c.ttl {
		if entry.contact == nil {
			return nil, ErrNotFound
		}
		contact := *entry.contact
		return &contact, nil
	}

	contact, err := c.backend.Lookup(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		// backend failures are not cached
		return nil, err
	}

	c.mu.Lock()
	c.entries[id] = cachedContact{contact: contact, cachedAt: now}
	c.mu.Unlock()

	if contact == nil {
		return nil, ErrNotFound
	}
	out := *contact
	return &out, nil
}

// Invalidate drops a cached entry, e.g. after the contact was edited.
func (c *CachedContactDirectory) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// CachedContactRepository serves lookups from the cache and writes through
// to the backing repository, invalidating the entry it changed.
type CachedContactRepository struct {
	*CachedContactDirectory
	repo ContactRepository
}

func NewCachedContactRepository(repo ContactRepository, ttl time.Duration) *CachedContactRepository {
	return &CachedContactRepository{
		CachedContactDirectory: NewCachedContactDirectory(repo, ttl),
		repo:                   repo,
	}
}

func (c *CachedContactRepository) Upsert(ctx context.Context, contact *models.Contact) error {
	if err := c.repo.Upsert(ctx, contact); err != nil {
		return err
	}
	c.Invalidate(contact.ID)
	return nil
}

func (c *CachedContactRepository) List(ctx context.Context) ([]*models.Contact, error) {
	return c.repo.List(ctx)
}

func (c *CachedContactRepository) Delete(ctx context.Context, id string) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.Invalidate(id)
	return nil
}
