package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prudhvinik1/storyline/internal/models"
)

const presenceKeyPrefix = "user_status_"

// KVPresenceRepository keeps one OnlineStatus per user under
// user_status_<userID>. Records have no expiry; they change whenever
// presence changes.
type KVPresenceRepository struct {
	store KeyValueStore
	now   func() time.Time
}

func NewKVPresenceRepository(store KeyValueStore) *KVPresenceRepository {
	return &KVPresenceRepository{store: store, now: time.Now}
}

// SetPresence writes the status and stamps UpdatedAt.
func (r *KVPresenceRepository) SetPresence(ctx context.Context, status *models.OnlineStatus) error {
	status.UpdatedAt = r.now()

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}

	if err := r.store.Set(ctx, presenceKey(status.UserID), string(data)); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

func (r *KVPresenceRepository) GetPresence(ctx context.Context, userID string) (*models.OnlineStatus, error) {
	data, found, err := r.store.Get(ctx, presenceKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}
	if !found {
		// No record = user is offline
		return &models.OnlineStatus{UserID: userID, IsOnline: false}, nil
	}

	var status models.OnlineStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence: %w", err)
	}
	return &status, nil
}

func (r *KVPresenceRepository) DeletePresence(ctx context.Context, userID string) error {
	if err := r.store.Remove(ctx, presenceKey(userID)); err != nil {
		return fmt.Errorf("failed to delete presence: %w", err)
	}
	return nil
}

// GetBulkPresence resolves several users at once. Unreadable records are
// reported as offline instead of failing the whole batch.
func (r *KVPresenceRepository) GetBulkPresence(ctx context.Context, userIDs []string) (map[string]models.OnlineStatus, error) {
	presenceMap := make(map[string]models.OnlineStatus, len(userIDs))

	for _, userID := range userIDs {
		data, found, err := r.store.Get(ctx, presenceKey(userID))
		if err != nil {
			return nil, fmt.Errorf("failed to get bulk presence: %w", err)
		}

		var status models.OnlineStatus
		if !found || json.Unmarshal([]byte(data), &status) != nil {
			presenceMap[userID] = models.OnlineStatus{UserID: userID, IsOnline: false}
			continue
		}
		presenceMap[userID] = status
	}

	return presenceMap, nil
}

// Helper: build storage key for presence
func presenceKey(userID string) string {
	return presenceKeyPrefix + userID
}
