package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhvinik1/storyline/internal/models"
	"github.com/prudhvinik1/storyline/internal/repositories"
	"github.com/prudhvinik1/storyline/internal/services"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestAuth_RejectsMissingAndInvalidTokens(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/feed", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateItem_PublishesToLocalStory(t *testing.T) {
	// ARRANGE
	env := newTestEnv(t)

	// ACT
	rec := env.do(t, http.MethodPost, "/stories/mine/items", env.ownerToken,
		createItemRequest{Kind: "text", Text: "hello"})

	// ASSERT
	require.Equal(t, http.StatusCreated, rec.Code)
	var created itemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.KindText, created.Kind)
	assert.Equal(t, "Just now", created.Label)
	assert.Equal(t, created.CreatedAt.Add(24*time.Hour), created.ExpiresAt)

	rec = env.do(t, http.MethodGet, "/stories/mine", env.ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var story storyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &story))
	require.Len(t, story.Items, 1)
	assert.Equal(t, created.ID, story.Items[0].ID)
	assert.Equal(t, "me", story.OwnerID)
}

func TestCreateItem_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{"unknown kind", createItemRequest{Kind: "audio", MediaURI: "file:///a.m4a"}},
		{"empty text", createItemRequest{Kind: "text"}},
		{"media without uri", createItemRequest{Kind: "image"}},
		{"malformed body", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/stories/mine/items", env.ownerToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, env.store.List())
}

func TestCreateItem_OnlyOwner(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/stories/mine/items", env.viewerToken,
		createItemRequest{Kind: "text", Text: "hello"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.store.List())
}

func TestDeleteItem(t *testing.T) {
	env := newTestEnv(t)
	item, err := env.store.CreateText("bye")
	require.NoError(t, err)

	rec := env.do(t, http.MethodDelete, "/stories/mine/items/"+item.ID, env.ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, env.store.List())

	rec = env.do(t, http.MethodDelete, "/stories/mine/items/"+item.ID, env.ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurgeItems(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.CreateText("one")
	require.NoError(t, err)
	_, err = env.store.CreateMedia(models.KindImage, "file:///two.png")
	require.NoError(t, err)

	rec := env.do(t, http.MethodDelete, "/stories/mine/items", env.ownerToken, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, env.store.List())
}

func TestFeed_LocalStoryFirst(t *testing.T) {
	env := newTestEnv(t)
	other, err := models.NewTextItem("from ada", env.store.Now())
	require.NoError(t, err)
	_, err = env.store.CreateFor("v1", "asset://ada.png", other)
	require.NoError(t, err)
	_, err = env.store.CreateText("mine")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/feed", env.viewerToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var feed []storyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 2)
	assert.Equal(t, "me", feed[0].OwnerID)
	assert.Equal(t, "v1", feed[1].OwnerID)
}

func TestTrackView_ListsViewerAndCount(t *testing.T) {
	// ARRANGE
	env := newTestEnv(t)
	storyID := env.store.LocalStory().ID
	path := "/stories/" + storyID

	// ACT
	rec := env.do(t, http.MethodPost, path+"/views", env.viewerToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodPost, path+"/views", env.viewerToken, trackViewRequest{Name: "Ada L."})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// ASSERT
	rec = env.do(t, http.MethodGet, path+"/viewers", env.ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var viewers []models.ViewerEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &viewers))
	require.Len(t, viewers, 1, "repeat views collapse into one entry")
	assert.Equal(t, "v1", viewers[0].ViewerID)
	assert.Equal(t, "Ada L.", viewers[0].Name)
	assert.Equal(t, "asset://ada.png", viewers[0].AvatarRef)
	assert.Equal(t, "Just now", viewers[0].Label)

	rec = env.do(t, http.MethodGet, path+"/views/count", env.ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, path+"/viewers?within=1h", env.ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &viewers))
	assert.Len(t, viewers, 1)
}

func TestTrackView_UnknownViewerIgnored(t *testing.T) {
	env := newTestEnv(t)
	stranger, _, err := env.identity.IssueToken("stranger")
	require.NoError(t, err)
	storyID := env.store.LocalStory().ID

	rec := env.do(t, http.MethodPost, "/stories/"+storyID+"/views", stranger, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, env.tracker.GetViewCount(context.Background(), storyID))
}

func TestStoryViewers_InvalidWindow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/stories/s1/viewers?within=soon", env.ownerToken, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewers_ListAndPurge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.tracker.TrackView(ctx, "s1", "v1", "", "")
	env.tracker.TrackView(ctx, "s2", "v1", "", "")

	rec := env.do(t, http.MethodGet, "/viewers", env.ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.ViewRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)

	rec = env.do(t, http.MethodDelete, "/viewers", env.viewerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/viewers", env.ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, env.tracker.GetAllViewers(ctx))
}

func TestPresence(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/presence/v1", env.viewerToken, presenceRequest{IsOnline: true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/presence/v1", env.ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.OnlineStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.IsOnline)
	assert.Equal(t, "v1", status.UserID)

	rec = env.do(t, http.MethodPut, "/presence/me", env.viewerToken, presenceRequest{IsOnline: true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/presence/nobody", env.ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.IsOnline)
}

func TestToggleReaction(t *testing.T) {
	env := newTestEnv(t)
	path := "/stories/s1/items/i1/reaction"

	rec := env.do(t, http.MethodPost, path, env.viewerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"story_id":"s1","item_id":"i1","reacted":true}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, path, env.viewerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"story_id":"s1","item_id":"i1","reacted":false}`, rec.Body.String())
}

func TestContacts_NewContactCanRecordViews(t *testing.T) {
	// ARRANGE
	env := newTestEnv(t)
	token, _, err := env.identity.IssueToken("v9")
	require.NoError(t, err)
	storyID := env.store.LocalStory().ID

	rec := env.do(t, http.MethodPost, "/stories/"+storyID+"/views", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, env.tracker.GetViewCount(context.Background(), storyID), "unknown viewer")

	// ACT
	rec = env.do(t, http.MethodPut, "/contacts/v9", env.ownerToken, contactRequest{Name: "Hedy"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/stories/"+storyID+"/views", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// ASSERT
	viewers := env.tracker.GetViewersFor(context.Background(), storyID)
	require.Len(t, viewers, 1)
	assert.Equal(t, "Hedy", viewers[0].Name)
	assert.Equal(t, models.DefaultAvatarRef, viewers[0].AvatarRef)

	rec = env.do(t, http.MethodGet, "/contacts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var contacts []models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contacts))
	assert.Len(t, contacts, 2)
}

func TestContacts_WriteRules(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/contacts/v9", env.viewerToken, contactRequest{Name: "Hedy"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/contacts/v9", env.ownerToken, contactRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/contacts/v1", env.ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/contacts/v1", env.ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearPresence(t *testing.T) {
	env := newTestEnv(t)
	env.tracker.SetPresence(context.Background(), "v1", true, nil)

	rec := env.do(t, http.MethodDelete, "/presence/v1", env.ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/presence/v1", env.viewerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, env.tracker.GetPresence(context.Background(), "v1").IsOnline)
}

func TestFeed_ShowsReactions(t *testing.T) {
	env := newTestEnv(t)
	item, err := env.store.CreateText("react to me")
	require.NoError(t, err)
	storyID := env.store.LocalStory().ID

	rec := env.do(t, http.MethodPost, "/stories/"+storyID+"/items/"+item.ID+"/reaction", env.viewerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/stories/mine", env.ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var story storyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &story))
	require.Len(t, story.Items, 1)
	assert.True(t, story.Items[0].Reacted)
	assert.Equal(t, 1, story.ReactedCount)
}

// Helper functions for test setup

type testEnv struct {
	router      http.Handler
	store       *services.StoryStore
	tracker     *services.ViewTracker
	identity    *services.IdentityService
	ownerToken  string
	viewerToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv := repositories.NewMemoryKeyValueStore()
	contacts := repositories.NewMemoryContactDirectory(
		models.Contact{ID: "v1", Name: "Ada", AvatarRef: "asset://ada.png"},
	)

	store := services.NewStoryStore("me", "asset://me.png")
	tracker := services.NewViewTracker(
		repositories.NewKVViewRepository(kv),
		repositories.NewKVPresenceRepository(kv),
		contacts,
		logger,
		services.WithOnlineSnapshot(func(ctx context.Context, viewerID string) (bool, *time.Time) {
			return false, nil
		}),
	)
	identity := services.NewIdentityService("test-secret", time.Hour)

	ownerToken, _, err := identity.IssueToken("me")
	require.NoError(t, err)
	viewerToken, _, err := identity.IssueToken("v1")
	require.NoError(t, err)

	h := NewHandlers(store, tracker, services.NewReactionTracker(nil), identity, contacts, logger)
	return &testEnv{
		router:      NewRouter(h),
		store:       store,
		tracker:     tracker,
		identity:    identity,
		ownerToken:  ownerToken,
		viewerToken: viewerToken,
	}
}

// do sends a request through the router. A string body is sent verbatim,
// anything else is encoded as JSON.
func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}
