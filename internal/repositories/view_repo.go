package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prudhvinik1/storyline/internal/models"
)

const viewKeyPrefix = "status_views_"

// KVViewRepository stores the view records of a story as one JSON array
// under status_views_<storyID>.
type KVViewRepository struct {
	store KeyValueStore
}

func NewKVViewRepository(store KeyValueStore) *KVViewRepository {
	return &KVViewRepository{store: store}
}

func (r *KVViewRepository) GetByStoryID(ctx context.Context, storyID string) ([]models.ViewRecord, error) {
	data, found, err := r.store.Get(ctx, viewKey(storyID))
	if err != nil {
		return nil, fmt.Errorf("failed to get views: %w", err)
	}
	if !found {
		return nil, nil
	}

	var records []models.ViewRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal views for story %s: %w", storyID, err)
	}
	return records, nil
}

// Save replaces the whole record list of the story.
func (r *KVViewRepository) Save(ctx context.Context, storyID string, records []models.ViewRecord) error {
	if records == nil {
		records = []models.ViewRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal views: %w", err)
	}

	if err := r.store.Set(ctx, viewKey(storyID), string(data)); err != nil {
		return fmt.Errorf("failed to save views: %w", err)
	}
	return nil
}

// ListStoryIDs returns the id of every story that has persisted views.
func (r *KVViewRepository) ListStoryIDs(ctx context.Context) ([]string, error) {
	keys, err := r.viewKeys(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = strings.TrimPrefix(key, viewKeyPrefix)
	}
	return ids, nil
}

func (r *KVViewRepository) DeleteAll(ctx context.Context) error {
	keys, err := r.viewKeys(ctx)
	if err != nil {
		return err
	}

	if err := r.store.RemoveMany(ctx, keys); err != nil {
		return fmt.Errorf("failed to delete views: %w", err)
	}
	return nil
}

func (r *KVViewRepository) viewKeys(ctx context.Context) ([]string, error) {
	keys, err := r.store.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list view keys: %w", err)
	}

	var out []string
	for _, key := range keys {
		if strings.HasPrefix(key, viewKeyPrefix) {
			out = append(out, key)
		}
	}
	return out, nil
}

// Helper: build storage key for a story's views
func viewKey(storyID string) string {
	return viewKeyPrefix + storyID
}
