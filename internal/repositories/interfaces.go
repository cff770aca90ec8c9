package repositories

import (
	"context"

	"github.com/prudhvinik1/storyline/internal/models"
)

// KeyValueStore is the durable string store views and presence are kept in.
// Get reports found=false for a missing key rather than an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
	RemoveMany(ctx context.Context, keys []string) error
}

type ContactDirectory interface {
	Lookup(ctx context.Context, id string) (*models.Contact, error)
}

type ContactRepository interface {
	ContactDirectory
	Upsert(ctx context.Context, contact *models.Contact) error
	List(ctx context.Context) ([]*models.Contact, error)
	Delete(ctx context.Context, id string) error
}

type ViewRepository interface {
	GetByStoryID(ctx context.Context, storyID string) ([]models.ViewRecord, error)
	Save(ctx context.Context, storyID string, records []models.ViewRecord) error
	ListStoryIDs(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) error
}

type PresenceRepository interface {
	SetPresence(ctx context.Context, status *models.OnlineStatus) error
	GetPresence(ctx context.Context, userID string) (*models.OnlineStatus, error)
	DeletePresence(ctx context.Context, userID string) error
	GetBulkPresence(ctx context.Context, userIDs []string) (map[string]models.OnlineStatus, error)
}
