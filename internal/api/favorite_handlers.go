package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kainan-collective/kainan/internal/favorite"
	"github.com/kainan-collective/kainan/internal/middleware"
	"github.com/kainan-collective/kainan/internal/rating"
)

// AddFavoriteRequest represents the request body for adding a favorite.
type AddFavoriteRequest struct {
	TargetID   string      `json:"target_id"`
	TargetKind rating.Kind `json:"target_kind"`
}

// FavoriteHandlers holds dependencies for favorite HTTP handlers.
type FavoriteHandlers struct {
	service *favorite.Service
}

// NewFavoriteHandlers creates a new FavoriteHandlers instance.
func NewFavoriteHandlers(service *favorite.Service) *FavoriteHandlers {
	return &FavoriteHandlers{service: service}
}

// AddFavorite handles POST /favorites.
func (h *FavoriteHandlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	var req AddFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if req.TargetID == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "target_id is required")
		return
	}

	fav, err := h.service.Add(r.Context(), requester.ID, req.TargetID, req.TargetKind)
	if err != nil {
		switch {
		case errors.Is(err, favorite.ErrInvalidKind):
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "target_kind must be dish or restaurant")
			return
		case errors.Is(err, favorite.ErrAlreadyFavorited):
			WriteError(w, r.Context(), http.StatusConflict, ErrCodeConflict, "Already in favorites")
			return
		default:
			slog.ErrorContext(r.Context(), "failed to add favorite", "error", err)
			WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to add favorite")
			return
		}
	}

	WriteJSON(w, r.Context(), http.StatusCreated, fav)
}

// RemoveFavorite handles DELETE /favorites/{kind}/{id}.
func (h *FavoriteHandlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	kind := rating.Kind(r.PathValue("kind"))
	err := h.service.Remove(r.Context(), requester.ID, r.PathValue("id"), kind)
	if err != nil {
		switch {
		case errors.Is(err, favorite.ErrInvalidKind):
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "kind must be dish or restaurant")
			return
		case errors.Is(err, favorite.ErrFavoriteNotFound):
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Favorite not found")
			return
		default:
			slog.ErrorContext(r.Context(), "failed to remove favorite", "error", err)
			WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to remove favorite")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFavorites handles GET /favorites.
// Returns the authenticated user's favorites, newest first.
func (h *FavoriteHandlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	favorites, err := h.service.List(r.Context(), requester.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list favorites", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list favorites")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"favorites": favorites,
	})
}
