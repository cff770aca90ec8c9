package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/prudhvinik1/storyline/internal/services"
)

type contextKey string

const viewerIDKey contextKey = "viewer_id"

// ViewerID returns the authenticated viewer of the request, if any.
func ViewerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(viewerIDKey).(string)
	return id, ok && id != ""
}

// authenticate verifies the bearer token and stores the viewer id in the
// request context.
func (h *Handlers) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.identity.VerifyToken(token)
		if err != nil {
			if !errors.Is(err, services.ErrInvalidToken) {
				h.logger.Error("token verification failed", slog.Any("err", err))
			}
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), viewerIDKey, claims.ViewerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireLocalOwner limits a route to the owner of the local story.
func (h *Handlers) requireLocalOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewerID, _ := ViewerID(r.Context())
		if viewerID != h.store.LocalOwner() {
			writeError(w, http.StatusForbidden, "only the story owner can do this")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Debug("request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}
