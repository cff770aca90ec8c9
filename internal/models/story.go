package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/storyline/internal/utils"
)

// ItemTTL is how long a story item stays visible after it is created.
const ItemTTL = 24 * time.Hour

var ErrInvalidItem = errors.New("invalid story item")

type ItemKind string

const (
	KindText  ItemKind = "text"
	KindImage ItemKind = "image"
	KindVideo ItemKind = "video"
)

func (k ItemKind) IsMedia() bool {
	return k == KindImage || k == KindVideo
}

func ParseItemKind(s string) (ItemKind, error) {
	switch ItemKind(s) {
	case KindText, KindImage, KindVideo:
		return ItemKind(s), nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, s)
}

// StoryItem is one unit of ephemeral content. Kind selects which payload
// field is populated: Text for text items, MediaURI for image and video.
type StoryItem struct {
	ID        string    `json:"id"`
	Kind      ItemKind  `json:"kind"`
	Text      string    `json:"text,omitempty"`
	MediaURI  string    `json:"media_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewTextItem(text string, createdAt time.Time) (StoryItem, error) {
	return newItem(KindText, text, "", createdAt)
}

func NewMediaItem(kind ItemKind, uri string, createdAt time.Time) (StoryItem, error) {
	if !kind.IsMedia() {
		return StoryItem{}, fmt.Errorf("%w: %q is not a media kind", ErrInvalidItem, kind)
	}
	return newItem(kind, "", uri, createdAt)
}

func newItem(kind ItemKind, text, uri string, createdAt time.Time) (StoryItem, error) {
	item := StoryItem{
		ID:        uuid.New().String(),
		Kind:      kind,
		Text:      text,
		MediaURI:  uri,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ItemTTL),
	}
	if err := item.Validate(); err != nil {
		return StoryItem{}, err
	}
	return item, nil
}

// Validate checks that the payload matches the declared kind and that the
// expiry is exactly one TTL after creation.
func (i StoryItem) Validate() error {
	switch i.Kind {
	case KindText:
		if i.Text == "" {
			return fmt.Errorf("%w: text item requires text", ErrInvalidItem)
		}
		if i.MediaURI != "" {
			return fmt.Errorf("%w: text item cannot carry media", ErrInvalidItem)
		}
	case KindImage, KindVideo:
		if i.MediaURI == "" {
			return fmt.Errorf("%w: %s item requires a media uri", ErrInvalidItem, i.Kind)
		}
		if i.Text != "" {
			return fmt.Errorf("%w: %s item cannot carry text", ErrInvalidItem, i.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, i.Kind)
	}
	if !i.ExpiresAt.Equal(i.CreatedAt.Add(ItemTTL)) {
		return fmt.Errorf("%w: expiry must be %s after creation", ErrInvalidItem, ItemTTL)
	}
	return nil
}

func (i StoryItem) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}

// Label is the human readable age of the item. It is derived on every call
// and never stored.
func (i StoryItem) Label(now time.Time) string {
	return utils.RelativeTime(i.CreatedAt, now)
}

// Story is one owner's ordered sequence of items.
type Story struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"owner_id"`
	AvatarRef string      `json:"avatar_ref"`
	Items     []StoryItem `json:"items"`
}

func (s Story) Playable() bool {
	return len(s.Items) > 0
}
