package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kainan-collective/kainan/internal/middleware"
	"github.com/kainan-collective/kainan/internal/rating"
	"github.com/kainan-collective/kainan/internal/validate"
)

// SubmitRatingRequest represents the request body for submitting a rating.
// The author is taken from the authenticated requester and the target from
// the URL, never from the body.
type SubmitRatingRequest struct {
	Score           int    `json:"score"`
	Comment         string `json:"comment,omitempty"`
	IsVerifiedVisit bool   `json:"is_verified_visit,omitempty"`
}

// RatingHandlers holds dependencies for rating HTTP handlers.
type RatingHandlers struct {
	aggregator *rating.Aggregator
	entries    rating.Repository
}

// NewRatingHandlers creates a new RatingHandlers instance.
func NewRatingHandlers(aggregator *rating.Aggregator, entries rating.Repository) *RatingHandlers {
	return &RatingHandlers{aggregator: aggregator, entries: entries}
}

// SubmitDishRating handles POST /dishes/{id}/ratings.
func (h *RatingHandlers) SubmitDishRating(w http.ResponseWriter, r *http.Request) {
	h.submitRating(w, r, rating.KindDish)
}

// SubmitRestaurantRating handles POST /restaurants/{id}/ratings.
func (h *RatingHandlers) SubmitRestaurantRating(w http.ResponseWriter, r *http.Request) {
	h.submitRating(w, r, rating.KindRestaurant)
}

func (h *RatingHandlers) submitRating(w http.ResponseWriter, r *http.Request, kind rating.Kind) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	var req SubmitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	comment, err := validate.Comment(req.Comment)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "comment: "+err.Error())
		return
	}

	entry, err := h.aggregator.UpsertRating(r.Context(), rating.UpsertRequest{
		AuthorID:        requester.ID,
		TargetID:        r.PathValue("id"),
		TargetKind:      kind,
		Score:           req.Score,
		Comment:         comment,
		IsVerifiedVisit: req.IsVerifiedVisit,
	})
	if err != nil {
		switch {
		case errors.Is(err, rating.ErrInvalidRating):
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidRating, "Score must be an integer between 1 and 5")
			return
		case errors.Is(err, rating.ErrTargetNotFound):
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Rating target not found")
			return
		case entry != nil:
			// The entry persisted but the aggregate recompute failed; the
			// aggregate is stale until the next mutation for this target.
			slog.WarnContext(r.Context(), "rating stored but aggregate recompute failed",
				"entry_id", entry.ID, "error", err)
		default:
			slog.ErrorContext(r.Context(), "failed to submit rating", "error", err)
			WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to submit rating")
			return
		}
	}

	WriteJSON(w, r.Context(), http.StatusCreated, entry)
}

// ListDishRatings handles GET /dishes/{id}/ratings.
func (h *RatingHandlers) ListDishRatings(w http.ResponseWriter, r *http.Request) {
	h.listRatings(w, r, rating.KindDish)
}

// ListRestaurantRatings handles GET /restaurants/{id}/ratings.
func (h *RatingHandlers) ListRestaurantRatings(w http.ResponseWriter, r *http.Request) {
	h.listRatings(w, r, rating.KindRestaurant)
}

func (h *RatingHandlers) listRatings(w http.ResponseWriter, r *http.Request, kind rating.Kind) {
	entries, err := h.entries.ListByTarget(r.Context(), r.PathValue("id"), kind)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list ratings", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list ratings")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"ratings": entries,
	})
}

// DeleteRating handles DELETE /ratings/{id}.
// Permitted for the entry's author or elevated roles.
func (h *RatingHandlers) DeleteRating(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	err := h.aggregator.DeleteRating(r.Context(), r.PathValue("id"), requester)
	if err != nil {
		switch {
		case errors.Is(err, rating.ErrEntryNotFound):
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Rating not found")
			return
		case errors.Is(err, rating.ErrForbidden):
			WriteError(w, r.Context(), http.StatusForbidden, ErrCodeForbidden, "You may only delete your own ratings")
			return
		default:
			slog.ErrorContext(r.Context(), "failed to delete rating", "error", err)
			WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to delete rating")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
