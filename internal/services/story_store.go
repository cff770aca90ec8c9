package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/storyline/internal/models"
	"github.com/prudhvinik1/storyline/internal/telemetry"
)

var (
	ErrPermissionDenied = errors.New("media access permission denied")
	ErrItemNotFound     = errors.New("story item not found")
)

// MediaSelection is what the capture/picker flow hands back for a new item.
type MediaSelection struct {
	URI  string
	Kind models.ItemKind
}

// MediaPicker produces a local media reference. Implementations return
// ErrPermissionDenied when the user refuses media access.
type MediaPicker interface {
	Pick(ctx context.Context) (MediaSelection, error)
}

// StoryStore holds the stories of the current session in memory: the
// local user's own story plus stories of other owners shown in the feed.
// Expiry is applied when reading; expired items stay stored until
// PurgeExpired or PurgeAll removes them.
type StoryStore struct {
	mu         sync.RWMutex
	localOwner string
	stories    map[string]*models.Story
	order      []string
	now        func() time.Time
}

type StoreOption func(*StoryStore)

func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *StoryStore) { s.now = now }
}

func NewStoryStore(localOwnerID, localAvatar string, opts ...StoreOption) *StoryStore {
	s := &StoryStore{
		localOwner: localOwnerID,
		stories:    make(map[string]*models.Story),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.storyFor(localOwnerID, localAvatar)
	return s
}

func (s *StoryStore) Now() time.Time { return s.now() }

func (s *StoryStore) LocalOwner() string { return s.localOwner }

// Create publishes an item to the local user's story, newest first.
func (s *StoryStore) Create(item models.StoryItem) (models.StoryItem, error) {
	return s.CreateFor(s.localOwner, "", item)
}

// CreateFor publishes an item to another owner's story. avatarRef is only
// used when the owner has no story yet.
func (s *StoryStore) CreateFor(ownerID, avatarRef string, item models.StoryItem) (models.StoryItem, error) {
	if err := item.Validate(); err != nil {
		return models.StoryItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	story := s.storyFor(ownerID, avatarRef)
	story.Items = append([]models.StoryItem{item}, story.Items...)
	telemetry.IncItemsCreated()
	return item, nil
}

func (s *StoryStore) CreateText(text string) (models.StoryItem, error) {
	item, err := models.NewTextItem(text, s.now())
	if err != nil {
		return models.StoryItem{}, err
	}
	return s.Create(item)
}

func (s *StoryStore) CreateMedia(kind models.ItemKind, uri string) (models.StoryItem, error) {
	item, err := models.NewMediaItem(kind, uri, s.now())
	if err != nil {
		return models.StoryItem{}, err
	}
	return s.Create(item)
}

// CreateFromPicker asks the picker for media and publishes it. A refused
// permission aborts before anything is stored.
func (s *StoryStore) CreateFromPicker(ctx context.Context, picker MediaPicker) (models.StoryItem, error) {
	sel, err := picker.Pick(ctx)
	if err != nil {
		return models.StoryItem{}, fmt.Errorf("failed to pick media: %w", err)
	}
	return s.CreateMedia(sel.Kind, sel.URI)
}

// List returns the local user's unexpired items, evaluated against the
// clock on every call.
func (s *StoryStore) List() []models.StoryItem {
	return s.ListFor(s.localOwner)
}

func (s *StoryStore) ListFor(ownerID string) []models.StoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	story, ok := s.stories[ownerID]
	if !ok {
		return nil
	}
	return liveItems(story.Items, s.now())
}

// LocalStory returns the local user's story with only unexpired items.
func (s *StoryStore) LocalStory() models.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()

	story := *s.stories[s.localOwner]
	story.Items = liveItems(story.Items, s.now())
	return story
}

// Feed returns every playable story: local owner first, then other owners
// in the order they first published. Stories without live items are left out.
func (s *StoryStore) Feed() []models.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	feed := make([]models.Story, 0, len(s.order))
	for _, owner := range s.order {
		story := *s.stories[owner]
		story.Items = liveItems(story.Items, now)
		if story.Playable() {
			feed = append(feed, story)
		}
	}
	return feed
}

// Delete removes one of the local user's items, expired or not.
func (s *StoryStore) Delete(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	story := s.stories[s.localOwner]
	for i, item := range story.Items {
		if item.ID == itemID {
			story.Items = append(story.Items[:i:i], story.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// PurgeAll empties the local user's story regardless of expiry.
func (s *StoryStore) PurgeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stories[s.localOwner].Items = nil
}

// PurgeExpired erases expired items of every owner and returns how many
// were removed.
func (s *StoryStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, story := range s.stories {
		live := liveItems(story.Items, now)
		removed += len(story.Items) - len(live)
		story.Items = live
	}
	return removed
}

// Reset drops every story of the session and keeps an empty local story.
func (s *StoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := s.stories[s.localOwner]
	local.Items = nil
	s.stories = map[string]*models.Story{s.localOwner: local}
	s.order = []string{s.localOwner}
}

// storyFor returns the owner's story, creating it if needed. Callers hold mu
// (or are the constructor).
func (s *StoryStore) storyFor(ownerID, avatarRef string) *models.Story {
	if story, ok := s.stories[ownerID]; ok {
		return story
	}
	story := &models.Story{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		AvatarRef: avatarRef,
	}
	s.stories[ownerID] = story
	s.order = append(s.order, ownerID)
	return story
}

func liveItems(items []models.StoryItem, now time.Time) []models.StoryItem {
	out := make([]models.StoryItem, 0, len(items))
	for _, item := range items {
		if !item.Expired(now) {
			out = append(out, item)
		}
	}
	return out
}
