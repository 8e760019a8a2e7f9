package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kainan-collective/kainan/internal/audit"
	"github.com/kainan-collective/kainan/internal/curation"
	"github.com/kainan-collective/kainan/internal/dish"
	"github.com/kainan-collective/kainan/internal/middleware"
	"github.com/kainan-collective/kainan/internal/restaurant"
)

// CurateDishRequest represents the request body for PATCH /admin/dishes/{id}/curation.
//
// Rank fields use raw JSON so the handler can distinguish an absent field
// (leave unchanged) from an explicit null (clear the rank).
type CurateDishRequest struct {
	PanelRank    json.RawMessage `json:"panel_rank,omitempty"`
	FeaturedRank json.RawMessage `json:"featured_rank,omitempty"`
	IsSignature  *bool           `json:"is_signature,omitempty"`
}

// CurateRestaurantRequest represents the request body for PATCH /admin/restaurants/{id}/curation.
type CurateRestaurantRequest struct {
	FeaturedRank json.RawMessage `json:"featured_rank,omitempty"`
}

// CurationHandlers holds dependencies for curation HTTP handlers.
type CurationHandlers struct {
	service     *curation.Service
	dishes      dish.Repository
	restaurants restaurant.Repository
}

// NewCurationHandlers creates a new CurationHandlers instance.
func NewCurationHandlers(service *curation.Service, dishes dish.Repository, restaurants restaurant.Repository) *CurationHandlers {
	return &CurationHandlers{service: service, dishes: dishes, restaurants: restaurants}
}

// parseRank decodes a rank value from raw JSON. An explicit null yields a
// nil pointer, which clears the rank.
func parseRank(raw json.RawMessage) (*int, error) {
	var rank *int
	if err := json.Unmarshal(raw, &rank); err != nil {
		return nil, err
	}
	return rank, nil
}

// writeCurationError maps curation service errors to HTTP responses.
// Returns true if an error response was written.
func writeCurationError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, curation.ErrForbidden):
		WriteError(w, r.Context(), http.StatusForbidden, ErrCodeForbidden, "Only owners and admins may modify curation")
	case errors.Is(err, curation.ErrInvalidRank):
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidRank, "Rank must be a positive integer or null")
	case errors.Is(err, dish.ErrDishNotFound), errors.Is(err, restaurant.ErrRestaurantNotFound):
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Entity not found")
	default:
		slog.ErrorContext(r.Context(), "curation operation failed", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to apply curation change")
	}
	return true
}

// CurateDish handles PATCH /admin/dishes/{id}/curation.
// Each present field is applied in order: panel_rank, featured_rank,
// is_signature. Assigning an occupied rank evicts the previous holder
// within the same municipality.
func (h *CurationHandlers) CurateDish(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	var req CurateDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if req.PanelRank == nil && req.FeaturedRank == nil && req.IsSignature == nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "At least one curation field is required")
		return
	}

	id := r.PathValue("id")
	evicted := make(map[string]string)

	if req.PanelRank != nil {
		rank, err := parseRank(req.PanelRank)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "panel_rank must be an integer or null")
			return
		}
		result, err := h.service.SetDishPanelRank(r.Context(), requester, id, rank)
		if writeCurationError(w, r, err) {
			return
		}
		if result.EvictedID != "" {
			evicted["panel_rank"] = result.EvictedID
		}
	}

	if req.FeaturedRank != nil {
		rank, err := parseRank(req.FeaturedRank)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "featured_rank must be an integer or null")
			return
		}
		result, err := h.service.SetDishFeaturedRank(r.Context(), requester, id, rank)
		if writeCurationError(w, r, err) {
			return
		}
		if result.EvictedID != "" {
			evicted["featured_rank"] = result.EvictedID
		}
	}

	if req.IsSignature != nil {
		if err := h.service.SetDishSignature(r.Context(), requester, id, *req.IsSignature); writeCurationError(w, r, err) {
			return
		}
	}

	updated, err := h.dishes.GetByID(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to reload dish after curation", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load updated dish")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"dish":    updated,
		"evicted": evicted,
	})
}

// CurateRestaurant handles PATCH /admin/restaurants/{id}/curation.
func (h *CurationHandlers) CurateRestaurant(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	var req CurateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if req.FeaturedRank == nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "featured_rank is required")
		return
	}

	rank, err := parseRank(req.FeaturedRank)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "featured_rank must be an integer or null")
		return
	}

	id := r.PathValue("id")
	result, err := h.service.SetRestaurantFeaturedRank(r.Context(), requester, id, rank)
	if writeCurationError(w, r, err) {
		return
	}

	evicted := make(map[string]string)
	if result.EvictedID != "" {
		evicted["featured_rank"] = result.EvictedID
	}

	updated, err := h.restaurants.GetByID(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to reload restaurant after curation", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load updated restaurant")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"restaurant": updated,
		"evicted":    evicted,
	})
}

// AuditHistory handles GET /admin/audit?entity_type=dish&entity_id=...&limit=50.
// Admin only.
func (h *CurationHandlers) AuditHistory(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	entityType := r.URL.Query().Get("entity_type")
	entityID := r.URL.Query().Get("entity_id")
	if !audit.ValidEntityTypes[entityType] || entityID == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "entity_type (dish or restaurant) and entity_id are required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.service.History(r.Context(), requester, entityType, entityID, limit)
	if err != nil {
		if errors.Is(err, curation.ErrForbidden) {
			WriteError(w, r.Context(), http.StatusForbidden, ErrCodeForbidden, "Only admins may read the audit log")
			return
		}
		slog.ErrorContext(r.Context(), "failed to query audit log", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to query audit log")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"entries": entries,
	})
}
