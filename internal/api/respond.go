package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prudhvinik1/storyline/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

type itemResponse struct {
	models.StoryItem
	Label   string `json:"label"`
	Reacted bool   `json:"reacted"`
}

type storyResponse struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"owner_id"`
	AvatarRef    string         `json:"avatar_ref"`
	ReactedCount int            `json:"reacted_count"`
	Items        []itemResponse `json:"items"`
}

type countResponse struct {
	Count int `json:"count"`
}

type reactionResponse struct {
	StoryID string `json:"story_id"`
	ItemID  string `json:"item_id"`
	Reacted bool   `json:"reacted"`
}

func (h *Handlers) newStoryResponse(story models.Story, now time.Time) storyResponse {
	items := make([]itemResponse, 0, len(story.Items))
	for _, item := range story.Items {
		resp := newItemResponse(item, now)
		resp.Reacted = h.reactions.IsReacted(story.ID, item.ID)
		items = append(items, resp)
	}
	return storyResponse{
		ID:           story.ID,
		OwnerID:      story.OwnerID,
		AvatarRef:    story.AvatarRef,
		ReactedCount: h.reactions.ReactedCount(story.ID),
		Items:        items,
	}
}

func newItemResponse(item models.StoryItem, now time.Time) itemResponse {
	return itemResponse{StoryItem: item, Label: item.Label(now)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
