package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prudhvinik1/storyline/internal/models"
)

type MemoryContactDirectory struct {
	mu       sync.RWMutex
	contacts map[string]models.Contact
}

func NewMemoryContactDirectory(contacts ...models.Contact) *MemoryContactDirectory {
	d := &MemoryContactDirectory{contacts: make(map[string]models.Contact)}
	for _, c := range contacts {
		d.contacts[c.ID] = c
	}
	return d
}

func (d *MemoryContactDirectory) Lookup(ctx context.Context, id string) (*models.Contact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (d *MemoryContactDirectory) Upsert(ctx context.Context, contact *models.Contact) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	if existing, ok := d.contacts[contact.ID]; ok {
		contact.CreatedAt = existing.CreatedAt
	} else {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now
	d.contacts[contact.ID] = *contact
	return nil
}

func (d *MemoryContactDirectory) List(ctx context.Context) ([]*models.Contact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*models.Contact, 0, len(d.contacts))
	for _, c := range d.contacts {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *MemoryContactDirectory) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(d.contacts, id)
	return nil
}
