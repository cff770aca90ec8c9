// Package demo seeds a contact directory and a feed for local runs.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/prudhvinik1/storyline/internal/models"
	"github.com/prudhvinik1/storyline/internal/repositories"
	"github.com/prudhvinik1/storyline/internal/services"
)

// Contacts are the people the demo feed is authored by.
func Contacts() []models.Contact {
	return []models.Contact{
		{ID: "alice", Name: "Alice", AvatarRef: "asset://avatars/alice.png"},
		{ID: "bob", Name: "Bob", AvatarRef: "asset://avatars/bob.png"},
		{ID: "carol", Name: "Carol"},
	}
}

// SeedContacts writes the demo contacts and extra into repo when it holds
// no contacts yet. It reports how many were written.
func SeedContacts(ctx context.Context, repo repositories.ContactRepository, extra ...models.Contact) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	contacts := append(Contacts(), extra...)
	for i := range contacts {
		if err := repo.Upsert(ctx, &contacts[i]); err != nil {
			return i, fmt.Errorf("failed to seed contact %s: %w", contacts[i].ID, err)
		}
	}
	return len(contacts), nil
}

type seedItem struct {
	owner string
	kind  models.ItemKind
	body  string
	age   time.Duration
}

var seedItems = []seedItem{
	{"alice", models.KindText, "Morning run done", 3 * time.Hour},
	{"alice", models.KindImage, "asset://stories/alice/sunrise.jpg", 2 * time.Hour},
	{"bob", models.KindVideo, "asset://stories/bob/skate.mp4", 40 * time.Minute},
	{"carol", models.KindText, "New job starts Monday", 20 * time.Hour},
	{"carol", models.KindImage, "asset://stories/carol/desk.jpg", 19 * time.Hour},
	{"carol", models.KindText, "Coffee first", 5 * time.Minute},
}

// SeedFeed publishes the demo items into store, aged relative to its clock.
func SeedFeed(store *services.StoryStore) error {
	avatars := make(map[string]string)
	for _, c := range Contacts() {
		avatars[c.ID] = c.AvatarRef
	}

	now := store.Now()
	for _, s := range seedItems {
		created := now.Add(-s.age)

		var (
			item models.StoryItem
			err  error
		)
		if s.kind == models.KindText {
			item, err = models.NewTextItem(s.body, created)
		} else {
			item, err = models.NewMediaItem(s.kind, s.body, created)
		}
		if err != nil {
			return fmt.Errorf("failed to build demo item for %s: %w", s.owner, err)
		}

		if _, err := store.CreateFor(s.owner, avatars[s.owner], item); err != nil {
			return fmt.Errorf("failed to seed story for %s: %w", s.owner, err)
		}
	}
	return nil
}
