package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/storyline/internal/models"
	"github.com/prudhvinik1/storyline/internal/repositories"
	"github.com/prudhvinik1/storyline/internal/telemetry"
	"github.com/prudhvinik1/storyline/internal/utils"
)

// OnlineSnapshot decides the online flag and last-seen instant recorded
// with a view.
type OnlineSnapshot func(ctx context.Context, viewerID string) (online bool, lastSeen *time.Time)

// ViewTracker records who viewed which story and keeps per-user presence.
//
// Storage failures never reach the caller: they are logged, counted and
// treated as "no data" so the viewer list can always be rendered. A failed
// write is lost, and so is a view whose stored list could not be loaded.
type ViewTracker struct {
	views    repositories.ViewRepository
	presence repositories.PresenceRepository
	contacts repositories.ContactDirectory
	logger   *slog.Logger
	now      func() time.Time
	snapshot OnlineSnapshot
}

type ViewTrackerOption func(*ViewTracker)

func WithTrackerClock(now func() time.Time) ViewTrackerOption {
	return func(t *ViewTracker) { t.now = now }
}

func WithOnlineSnapshot(fn OnlineSnapshot) ViewTrackerOption {
	return func(t *ViewTracker) { t.snapshot = fn }
}

// WithStoredPresence records the viewer's stored presence with each view
// instead of the demo flag.
func WithStoredPresence() ViewTrackerOption {
	return func(t *ViewTracker) { t.snapshot = t.PresenceSnapshot }
}

func NewViewTracker(
	views repositories.ViewRepository,
	presence repositories.PresenceRepository,
	contacts repositories.ContactDirectory,
	logger *slog.Logger,
	opts ...ViewTrackerOption,
) *ViewTracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &ViewTracker{
		views:    views,
		presence: presence,
		contacts: contacts,
		logger:   logger.With(slog.String("component", "view_tracker")),
		now:      time.Now,
		snapshot: DemoOnlineSnapshot,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DemoOnlineSnapshot flips a coin for the online flag. It stands in until a
// real presence source is wired with WithOnlineSnapshot.
func DemoOnlineSnapshot(ctx context.Context, viewerID string) (bool, *time.Time) {
	return rand.Intn(2) == 1, nil
}

// PresenceSnapshot reads the stored presence record of the viewer.
func (t *ViewTracker) PresenceSnapshot(ctx context.Context, viewerID string) (bool, *time.Time) {
	status := t.GetPresence(ctx, viewerID)
	return status.IsOnline, status.LastSeen
}

// TrackView records that viewerID looked at storyID. Unknown viewers are
// ignored. A repeat view refreshes ViewedAt and the online snapshot of the
// existing record instead of adding a second one. viewerAvatarRef is not
// stored; avatars are resolved from the directory when viewers are listed.
func (t *ViewTracker) TrackView(ctx context.Context, storyID, viewerID, viewerName, viewerAvatarRef string) {
	contact, err := t.contacts.Lookup(ctx, viewerID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			t.logger.Warn("contact lookup failed", slog.String("viewer_id", viewerID), slog.Any("err", err))
		}
		telemetry.IncViewsIgnored()
		return
	}

	if viewerName == "" {
		viewerName = contact.Name
	}

	records, err := t.views.GetByStoryID(ctx, storyID)
	if err != nil {
		// never overwrite a list that could not be read
		t.fail("load_views", storyID, err)
		return
	}

	now := t.now()
	online, lastSeen := t.snapshot(ctx, viewerID)

	found := false
	for i := range records {
		if records[i].ViewerID == viewerID {
			records[i].ViewedAt = now
			records[i].ViewerName = viewerName
			records[i].ViewerOnline = online
			records[i].ViewerLastSeen = lastSeen
			found = true
			break
		}
	}
	if !found {
		records = append(records, models.ViewRecord{
			ID:             uuid.New().String(),
			StoryID:        storyID,
			ViewerID:       viewerID,
			ViewerName:     viewerName,
			ViewedAt:       now,
			ViewerOnline:   online,
			ViewerLastSeen: lastSeen,
		})
	}

	if err := t.views.Save(ctx, storyID, records); err != nil {
		t.fail("save_views", storyID, err)
		return
	}

	telemetry.IncViewsTracked()
	t.logger.Debug("view tracked",
		slog.String("story_id", storyID),
		slog.String("viewer_id", viewerID),
		slog.Bool("repeat", found),
	)
}

// GetViewersFor returns the viewers of a story ready for display.
func (t *ViewTracker) GetViewersFor(ctx context.Context, storyID string) []models.ViewerEntry {
	records, err := t.views.GetByStoryID(ctx, storyID)
	if err != nil {
		t.fail("load_views", storyID, err)
		return []models.ViewerEntry{}
	}

	viewerIDs := make([]string, 0, len(records))
	for _, r := range records {
		viewerIDs = append(viewerIDs, r.ViewerID)
	}
	live, err := t.presence.GetBulkPresence(ctx, viewerIDs)
	if err != nil {
		t.fail("bulk_presence", storyID, err)
		live = nil
	}

	now := t.now()
	entries := make([]models.ViewerEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, t.toEntry(ctx, r, live[r.ViewerID], now))
	}
	return entries
}

// GetRecentViewers returns viewers whose last view happened within window.
// The filter compares instants, never labels.
func (t *ViewTracker) GetRecentViewers(ctx context.Context, storyID string, window time.Duration) []models.ViewerEntry {
	cutoff := t.now().Add(-window)

	all := t.GetViewersFor(ctx, storyID)
	recent := make([]models.ViewerEntry, 0, len(all))
	for _, e := range all {
		if !e.ViewedAt.Before(cutoff) {
			recent = append(recent, e)
		}
	}
	return recent
}

// GetAllViewers flattens the records of every story that has views.
func (t *ViewTracker) GetAllViewers(ctx context.Context) []models.ViewRecord {
	storyIDs, err := t.views.ListStoryIDs(ctx)
	if err != nil {
		t.fail("list_views", "", err)
		return []models.ViewRecord{}
	}

	all := []models.ViewRecord{}
	for _, storyID := range storyIDs {
		records, err := t.views.GetByStoryID(ctx, storyID)
		if err != nil {
			t.fail("load_views", storyID, err)
			continue
		}
		all = append(all, records...)
	}
	return all
}

func (t *ViewTracker) GetViewCount(ctx context.Context, storyID string) int {
	return len(t.GetViewersFor(ctx, storyID))
}

func (t *ViewTracker) SetPresence(ctx context.Context, userID string, isOnline bool, lastSeen *time.Time) {
	status := &models.OnlineStatus{UserID: userID, IsOnline: isOnline, LastSeen: lastSeen}
	if err := t.presence.SetPresence(ctx, status); err != nil {
		t.logger.Error("failed to set presence", slog.String("user_id", userID), slog.Any("err", err))
		telemetry.IncPersistenceFailure("set_presence")
	}
}

// GetPresence returns the stored status, or an offline record when none
// can be read.
func (t *ViewTracker) GetPresence(ctx context.Context, userID string) *models.OnlineStatus {
	status, err := t.presence.GetPresence(ctx, userID)
	if err != nil {
		t.logger.Error("failed to get presence", slog.String("user_id", userID), slog.Any("err", err))
		telemetry.IncPersistenceFailure("get_presence")
		return &models.OnlineStatus{UserID: userID}
	}
	return status
}

// ClearPresence drops the stored record; the user reads as offline after.
func (t *ViewTracker) ClearPresence(ctx context.Context, userID string) {
	if err := t.presence.DeletePresence(ctx, userID); err != nil {
		t.logger.Error("failed to clear presence", slog.String("user_id", userID), slog.Any("err", err))
		telemetry.IncPersistenceFailure("clear_presence")
	}
}

// PurgeAllViews removes the view records of every story.
func (t *ViewTracker) PurgeAllViews(ctx context.Context) {
	if err := t.views.DeleteAll(ctx); err != nil {
		t.fail("purge_views", "", err)
		return
	}
	t.logger.Info("all story views purged")
}

func (t *ViewTracker) toEntry(ctx context.Context, r models.ViewRecord, live models.OnlineStatus, now time.Time) models.ViewerEntry {
	avatar := models.DefaultAvatarRef
	if contact, err := t.contacts.Lookup(ctx, r.ViewerID); err == nil && contact.AvatarRef != "" {
		avatar = contact.AvatarRef
	}

	return models.ViewerEntry{
		ID:             r.ID,
		StoryID:        r.StoryID,
		ViewerID:       r.ViewerID,
		Name:           r.ViewerName,
		AvatarRef:      avatar,
		ViewedAt:       r.ViewedAt,
		Label:          utils.RelativeTime(r.ViewedAt, now),
		Online:         r.ViewerOnline,
		ViewerLastSeen: r.ViewerLastSeen,
		Presence:       live.Status(),
	}
}

func (t *ViewTracker) fail(op, storyID string, err error) {
	t.logger.Error("story view storage failed",
		slog.String("op", op),
		slog.String("story_id", storyID),
		slog.Any("err", err),
	)
	telemetry.IncPersistenceFailure(op)
}
