// Package api exposes stories, viewers, presence and reactions over HTTP.
// Everything except health and metrics requires a bearer token issued by
// the identity service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prudhvinik1/storyline/internal/repositories"
	"github.com/prudhvinik1/storyline/internal/services"
)

type Handlers struct {
	store     *services.StoryStore
	tracker   *services.ViewTracker
	reactions *services.ReactionTracker
	identity  *services.IdentityService
	contacts  repositories.ContactRepository
	logger    *slog.Logger
}

func NewHandlers(
	store *services.StoryStore,
	tracker *services.ViewTracker,
	reactions *services.ReactionTracker,
	identity *services.IdentityService,
	contacts repositories.ContactRepository,
	logger *slog.Logger,
) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:     store,
		tracker:   tracker,
		reactions: reactions,
		identity:  identity,
		contacts:  contacts,
		logger:    logger.With(slog.String("component", "http")),
	}
}

// NewRouter returns the HTTP handler with all routes.
func NewRouter(h *Handlers) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(h.requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/feed", h.HandleFeed)

		r.Route("/stories/mine", func(r chi.Router) {
			r.Get("/", h.HandleMyStory)
			r.With(h.requireLocalOwner).Post("/items", h.HandleCreateItem)
			r.With(h.requireLocalOwner).Delete("/items", h.HandlePurgeItems)
			r.With(h.requireLocalOwner).Delete("/items/{itemID}", h.HandleDeleteItem)
		})

		r.Route("/stories/{storyID}", func(r chi.Router) {
			r.Post("/views", h.HandleTrackView)
			r.Get("/viewers", h.HandleStoryViewers)
			r.Get("/views/count", h.HandleViewCount)
			r.Post("/items/{itemID}/reaction", h.HandleToggleReaction)
		})

		r.Get("/viewers", h.HandleAllViewers)
		r.With(h.requireLocalOwner).Delete("/viewers", h.HandlePurgeViewers)

		r.Put("/presence/{userID}", h.HandleSetPresence)
		r.Get("/presence/{userID}", h.HandleGetPresence)
		r.Delete("/presence/{userID}", h.HandleClearPresence)

		r.Get("/contacts", h.HandleListContacts)
		r.With(h.requireLocalOwner).Put("/contacts/{contactID}", h.HandleUpsertContact)
		r.With(h.requireLocalOwner).Delete("/contacts/{contactID}", h.HandleDeleteContact)
	})

	return router
}
