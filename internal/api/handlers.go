package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prudhvinik1/storyline/internal/models"
	"github.com/prudhvinik1/storyline/internal/repositories"
	"github.com/prudhvinik1/storyline/internal/services"
)

type createItemRequest struct {
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	MediaURI string `json:"media_uri"`
}

type trackViewRequest struct {
	Name      string `json:"name"`
	AvatarRef string `json:"avatar_ref"`
}

type contactRequest struct {
	Name      string `json:"name"`
	AvatarRef string `json:"avatar_ref"`
}

type presenceRequest struct {
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

// HandleFeed lists every story with live items, the local story first.
func (h *Handlers) HandleFeed(w http.ResponseWriter, r *http.Request) {
	now := h.store.Now()
	feed := h.store.Feed()
	out := make([]storyResponse, 0, len(feed))
	for _, story := range feed {
		out = append(out, h.newStoryResponse(story, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HandleMyStory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.newStoryResponse(h.store.LocalStory(), h.store.Now()))
}

func (h *Handlers) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := models.ParseItemKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var item models.StoryItem
	if kind == models.KindText {
		item, err = h.store.CreateText(req.Text)
	} else {
		item, err = h.store.CreateMedia(kind, req.MediaURI)
	}
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newItemResponse(item, h.store.Now()))
}

func (h *Handlers) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "itemID")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandlePurgeItems(w http.ResponseWriter, r *http.Request) {
	h.store.PurgeAll()
	w.WriteHeader(http.StatusNoContent)
}

// HandleTrackView records the authenticated viewer against the story. The
// body is optional and only carries display hints.
func (h *Handlers) HandleTrackView(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := ViewerID(r.Context())

	var req trackViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.tracker.TrackView(r.Context(), chi.URLParam(r, "storyID"), viewerID, req.Name, req.AvatarRef)
	w.WriteHeader(http.StatusNoContent)
}

// HandleStoryViewers lists viewers of a story. With ?within=<duration>
// only viewers seen inside that window are returned.
func (h *Handlers) HandleStoryViewers(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "storyID")

	within := r.URL.Query().Get("within")
	if within == "" {
		writeJSON(w, http.StatusOK, h.tracker.GetViewersFor(r.Context(), storyID))
		return
	}

	window, err := time.ParseDuration(within)
	if err != nil || window <= 0 {
		writeError(w, http.StatusBadRequest, "invalid within duration")
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.GetRecentViewers(r.Context(), storyID, window))
}

func (h *Handlers) HandleViewCount(w http.ResponseWriter, r *http.Request) {
	count := h.tracker.GetViewCount(r.Context(), chi.URLParam(r, "storyID"))
	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

func (h *Handlers) HandleAllViewers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.GetAllViewers(r.Context()))
}

func (h *Handlers) HandlePurgeViewers(w http.ResponseWriter, r *http.Request) {
	h.tracker.PurgeAllViews(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetPresence updates the caller's own presence record.
func (h *Handlers) HandleSetPresence(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if viewerID, _ := ViewerID(r.Context()); viewerID != userID {
		writeError(w, http.StatusForbidden, "cannot set presence of another user")
		return
	}

	var req presenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.tracker.SetPresence(r.Context(), userID, req.IsOnline, req.LastSeen)
	writeJSON(w, http.StatusOK, h.tracker.GetPresence(r.Context(), userID))
}

func (h *Handlers) HandleGetPresence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.GetPresence(r.Context(), chi.URLParam(r, "userID")))
}

// HandleClearPresence removes the caller's own presence record.
func (h *Handlers) HandleClearPresence(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if viewerID, _ := ViewerID(r.Context()); viewerID != userID {
		writeError(w, http.StatusForbidden, "cannot clear presence of another user")
		return
	}
	h.tracker.ClearPresence(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list contacts", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if contacts == nil {
		contacts = []*models.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

// HandleUpsertContact adds or renames a contact. Views are only recorded
// for viewers present in the directory.
func (h *Handlers) HandleUpsertContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	contact := &models.Contact{ID: chi.URLParam(r, "contactID"), Name: req.Name, AvatarRef: req.AvatarRef}
	if err := h.contacts.Upsert(r.Context(), contact); err != nil {
		h.logger.Error("failed to upsert contact", slog.String("contact_id", contact.ID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (h *Handlers) HandleDeleteContact(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "contactID")
	err := h.contacts.Delete(r.Context(), contactID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		writeError(w, http.StatusNotFound, "contact not found")
	case err != nil:
		h.logger.Error("failed to delete contact", slog.String("contact_id", contactID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) HandleToggleReaction(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "storyID")
	itemID := chi.URLParam(r, "itemID")

	reacted := h.reactions.Toggle(storyID, itemID)
	writeJSON(w, http.StatusOK, reactionResponse{StoryID: storyID, ItemID: itemID, Reacted: reacted})
}

func (h *Handlers) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	default:
		h.logger.Error("story operation failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
