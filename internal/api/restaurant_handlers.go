package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kainan-collective/kainan/internal/municipality"
	"github.com/kainan-collective/kainan/internal/ranking"
	"github.com/kainan-collective/kainan/internal/restaurant"
	"github.com/kainan-collective/kainan/internal/validate"
)

// CreateRestaurantRequest represents the request body for creating a restaurant.
type CreateRestaurantRequest struct {
	MunicipalityID string   `json:"municipality_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	CuisineTypes   []string `json:"cuisine_types,omitempty"`
	Address        string   `json:"address,omitempty"`
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	PhotoKey       string   `json:"photo_key,omitempty"`
}

// UpdateRestaurantRequest represents the request body for updating a restaurant.
type UpdateRestaurantRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	CuisineTypes []string `json:"cuisine_types,omitempty"`
	Address      *string  `json:"address,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	PhotoKey     *string  `json:"photo_key,omitempty"`
}

// RestaurantHandlers holds dependencies for restaurant HTTP handlers.
type RestaurantHandlers struct {
	restaurants    restaurant.Repository
	municipalities municipality.Repository
}

// NewRestaurantHandlers creates a new RestaurantHandlers instance.
func NewRestaurantHandlers(restaurants restaurant.Repository, municipalities municipality.Repository) *RestaurantHandlers {
	return &RestaurantHandlers{restaurants: restaurants, municipalities: municipalities}
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return errors.New("lat must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return errors.New("lng must be between -180 and 180")
	}
	return nil
}

// CreateRestaurant handles POST /restaurants.
func (h *RestaurantHandlers) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireEntityWriter(w, r); !ok {
		return
	}

	var req CreateRestaurantRequest
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
	if err := validateCoordinates(req.Lat, req.Lng); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
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
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to create restaurant")
		return
	}

	rest := &restaurant.Restaurant{
		MunicipalityID: req.MunicipalityID,
		Name:           name,
		Description:    description,
		CuisineTypes:   sanitizeStringSlice(req.CuisineTypes),
		Address:        validate.SanitizeHTML(req.Address),
		Lat:            req.Lat,
		Lng:            req.Lng,
		PhotoKey:       req.PhotoKey,
	}

	if err := h.restaurants.Insert(r.Context(), rest); err != nil {
		slog.ErrorContext(r.Context(), "failed to create restaurant", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to create restaurant")
		return
	}

	WriteJSON(w, r.Context(), http.StatusCreated, rest)
}

// UpdateRestaurant handles PUT /restaurants/{id}.
func (h *RestaurantHandlers) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireEntityWriter(w, r); !ok {
		return
	}

	existing, err := h.restaurants.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, restaurant.ErrRestaurantNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Restaurant not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get restaurant", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to update restaurant")
		return
	}

	var req UpdateRestaurantRequest
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
	if req.CuisineTypes != nil {
		existing.CuisineTypes = sanitizeStringSlice(req.CuisineTypes)
	}
	if req.Address != nil {
		existing.Address = validate.SanitizeHTML(*req.Address)
	}
	if req.Lat != nil {
		existing.Lat = *req.Lat
	}
	if req.Lng != nil {
		existing.Lng = *req.Lng
	}
	if err := validateCoordinates(existing.Lat, existing.Lng); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	if req.PhotoKey != nil {
		existing.PhotoKey = *req.PhotoKey
	}

	if err := h.restaurants.Update(r.Context(), existing); err != nil {
		slog.ErrorContext(r.Context(), "failed to update restaurant", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to update restaurant")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, existing)
}

// GetRestaurant handles GET /restaurants/{id}.
func (h *RestaurantHandlers) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurants.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, restaurant.ErrRestaurantNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Restaurant not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get restaurant", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to get restaurant")
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, rest)
}

// ListRestaurants handles GET /municipalities/{id}/restaurants.
func (h *RestaurantHandlers) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.restaurants.ListByMunicipality(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list restaurants", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list restaurants")
		return
	}

	ranked := restaurant.RankTop(restaurants, ranking.DefaultListLimit)
	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"restaurants": ranked,
	})
}

// TopRestaurants handles GET /municipalities/{id}/restaurants/top.
func (h *RestaurantHandlers) TopRestaurants(w http.ResponseWriter, r *http.Request) {
	limit := parseWidgetLimit(r)

	restaurants, err := h.restaurants.ListByMunicipality(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list restaurants", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list top restaurants")
		return
	}

	ranked := restaurant.RankTop(restaurants, limit)
	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"restaurants": ranked,
	})
}

// RestaurantsByDish handles GET /municipalities/{id}/restaurants/by-dish?dish=name.
// Returns restaurants in the municipality serving the named dish, ranked.
func (h *RestaurantHandlers) RestaurantsByDish(w http.ResponseWriter, r *http.Request) {
	dishName := strings.TrimSpace(r.URL.Query().Get("dish"))
	if dishName == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "dish query parameter is required")
		return
	}

	restaurants, err := h.restaurants.ListByDishName(r.Context(), r.PathValue("id"), dishName)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list restaurants by dish", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list restaurants")
		return
	}

	ranked := restaurant.RankTop(restaurants, ranking.DefaultListLimit)
	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"restaurants": ranked,
	})
}
