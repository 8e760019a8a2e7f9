package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kainan-collective/kainan/internal/authz"
	"github.com/kainan-collective/kainan/internal/dish"
	"github.com/kainan-collective/kainan/internal/middleware"
	"github.com/kainan-collective/kainan/internal/municipality"
	"github.com/kainan-collective/kainan/internal/ranking"
	"github.com/kainan-collective/kainan/internal/validate"
)

// CreateDishRequest represents the request body for creating a dish.
type CreateDishRequest struct {
	MunicipalityID string   `json:"municipality_id"`
	RestaurantID   *string  `json:"restaurant_id,omitempty"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	FlavorProfile  []string `json:"flavor_profile,omitempty"`
	Ingredients    []string `json:"ingredients,omitempty"`
	PhotoKey       string   `json:"photo_key,omitempty"`
}

// UpdateDishRequest represents the request body for updating a dish.
// Only descriptive fields are mutable; aggregates and curation fields
// are maintained through their own endpoints.
type UpdateDishRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	FlavorProfile []string `json:"flavor_profile,omitempty"`
	Ingredients   []string `json:"ingredients,omitempty"`
	PhotoKey      *string  `json:"photo_key,omitempty"`
}

// DishHandlers holds dependencies for dish HTTP handlers.
type DishHandlers struct {
	dishes         dish.Repository
	municipalities municipality.Repository
}

// NewDishHandlers creates a new DishHandlers instance.
func NewDishHandlers(dishes dish.Repository, municipalities municipality.Repository) *DishHandlers {
	return &DishHandlers{dishes: dishes, municipalities: municipalities}
}

// requireEntityWriter resolves the requester and checks entity write
// permission, writing the error response itself on failure.
func requireEntityWriter(w http.ResponseWriter, r *http.Request) (authz.Requester, bool) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return authz.Requester{}, false
	}
	if !authz.Can(requester, authz.ActionEntityWrite, authz.Resource{}) {
		WriteError(w, r.Context(), http.StatusForbidden, ErrCodeForbidden, "Only owners and admins may modify listings")
		return authz.Requester{}, false
	}
	return requester, true
}

// CreateDish handles POST /dishes.
func (h *DishHandlers) CreateDish(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireEntityWriter(w, r); !ok {
		return
	}

	var req CreateDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	name, err := validate.EntityName(req.Name)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "name: "+err.Error())
		return
	}
	description, err := validate.Description(req.Description)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "description: "+err.Error())
		return
	}
	if req.MunicipalityID == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "municipality_id is required")
		return
	}
	if _, err := h.municipalities.GetByID(r.Context(), req.MunicipalityID); err != nil {
		if errors.Is(err, municipality.ErrMunicipalityNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Municipality not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to check municipality", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to create dish")
		return
	}

	d := &dish.Dish{
		MunicipalityID: req.MunicipalityID,
		RestaurantID:   req.RestaurantID,
		Name:           name,
		Description:    description,
		FlavorProfile:  sanitizeStringSlice(req.FlavorProfile),
		Ingredients:    sanitizeStringSlice(req.Ingredients),
		PhotoKey:       req.PhotoKey,
	}

	if err := h.dishes.Insert(r.Context(), d); err != nil {
		slog.ErrorContext(r.Context(), "failed to create dish", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to create dish")
		return
	}

	WriteJSON(w, r.Context(), http.StatusCreated, d)
}

// UpdateDish handles PUT /dishes/{id}.
func (h *DishHandlers) UpdateDish(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireEntityWriter(w, r); !ok {
		return
	}

	id := r.PathValue("id")
	existing, err := h.dishes.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, dish.ErrDishNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Dish not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get dish", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to update dish")
		return
	}

	var req UpdateDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if req.Name != nil {
		name, err := validate.EntityName(*req.Name)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "name: "+err.Error())
			return
		}
		existing.Name = name
	}
	if req.Description != nil {
		description, err := validate.Description(*req.Description)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "description: "+err.Error())
			return
		}
		existing.Description = description
	}
	if req.FlavorProfile != nil {
		existing.FlavorProfile = sanitizeStringSlice(req.FlavorProfile)
	}
	if req.Ingredients != nil {
		existing.Ingredients = sanitizeStringSlice(req.Ingredients)
	}
	if req.PhotoKey != nil {
		existing.PhotoKey = *req.PhotoKey
	}

	if err := h.dishes.Update(r.Context(), existing); err != nil {
		slog.ErrorContext(r.Context(), "failed to update dish", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to update dish")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, existing)
}

// GetDish handles GET /dishes/{id}.
func (h *DishHandlers) GetDish(w http.ResponseWriter, r *http.Request) {
	d, err := h.dishes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, dish.ErrDishNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Dish not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get dish", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to get dish")
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, d)
}

// ListDishes handles GET /municipalities/{id}/dishes.
// Returns the municipality's dishes in curation-first ranked order.
func (h *DishHandlers) ListDishes(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.dishes.ListByMunicipality(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list dishes", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list dishes")
		return
	}

	ranked := dish.RankTop(dishes, ranking.DefaultListLimit)
	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"dishes": ranked,
	})
}

// TopDishes handles GET /municipalities/{id}/dishes/top.
// Returns the top dishes for display widgets; the limit query parameter
// is clamped to the widget bounds.
func (h *DishHandlers) TopDishes(w http.ResponseWriter, r *http.Request) {
	limit := parseWidgetLimit(r)

	dishes, err := h.dishes.ListByMunicipality(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list dishes", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list top dishes")
		return
	}

	ranked := dish.RankTop(dishes, limit)
	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"dishes": ranked,
	})
}

// parseWidgetLimit extracts and clamps the limit query parameter for
// "top N" widget endpoints.
func parseWidgetLimit(r *http.Request) int {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	return ranking.ClampWidgetLimit(limit)
}

// sanitizeStringSlice HTML-escapes each element and drops empties.
func sanitizeStringSlice(values []string) []string {
	if values == nil {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		if sanitized := validate.SanitizeHTML(v); sanitized != "" {
			result = append(result, sanitized)
		}
	}
	return result
}
