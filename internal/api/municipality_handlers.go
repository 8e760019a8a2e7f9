package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kainan-collective/kainan/internal/authz"
	"github.com/kainan-collective/kainan/internal/middleware"
	"github.com/kainan-collective/kainan/internal/municipality"
	"github.com/kainan-collective/kainan/internal/validate"
)

// CreateMunicipalityRequest represents the request body for creating a municipality.
type CreateMunicipalityRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Province    string  `json:"province,omitempty"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// MunicipalityHandlers holds dependencies for municipality HTTP handlers.
type MunicipalityHandlers struct {
	repo municipality.Repository
}

// NewMunicipalityHandlers creates a new MunicipalityHandlers instance.
func NewMunicipalityHandlers(repo municipality.Repository) *MunicipalityHandlers {
	return &MunicipalityHandlers{repo: repo}
}

// CreateMunicipality handles POST /municipalities.
// Restricted to owner and admin roles.
func (h *MunicipalityHandlers) CreateMunicipality(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}
	if !authz.Can(requester, authz.ActionEntityWrite, authz.Resource{}) {
		WriteError(w, r.Context(), http.StatusForbidden, ErrCodeForbidden, "Only owners and admins may create municipalities")
		return
	}

	var req CreateMunicipalityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	name, err := validate.EntityName(req.Name)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "name: "+err.Error())
		return
	}
	slug, err := validate.Slug(req.Slug)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "slug: "+err.Error())
		return
	}
	description, err := validate.Description(req.Description)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "description: "+err.Error())
		return
	}

	m := &municipality.Municipality{
		Name:        name,
		Slug:        slug,
		Province:    validate.SanitizeHTML(req.Province),
		Description: description,
		Lat:         req.Lat,
		Lng:         req.Lng,
	}

	if err := h.repo.Insert(r.Context(), m); err != nil {
		if errors.Is(err, municipality.ErrDuplicateSlug) {
			WriteError(w, r.Context(), http.StatusConflict, ErrCodeDuplicateSlug, "A municipality with this slug already exists")
			return
		}
		slog.ErrorContext(r.Context(), "failed to create municipality", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to create municipality")
		return
	}

	WriteJSON(w, r.Context(), http.StatusCreated, m)
}

// ListMunicipalities handles GET /municipalities.
func (h *MunicipalityHandlers) ListMunicipalities(w http.ResponseWriter, r *http.Request) {
	municipalities, err := h.repo.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list municipalities", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list municipalities")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, map[string]any{
		"municipalities": municipalities,
	})
}

// GetMunicipality handles GET /municipalities/{id}.
// The path value may be either a municipality ID or its slug.
func (h *MunicipalityHandlers) GetMunicipality(w http.ResponseWriter, r *http.Request) {
	idOrSlug := r.PathValue("id")
	if idOrSlug == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Municipality ID is required")
		return
	}

	m, err := h.repo.GetByID(r.Context(), idOrSlug)
	if errors.Is(err, municipality.ErrMunicipalityNotFound) {
		m, err = h.repo.GetBySlug(r.Context(), idOrSlug)
	}
	if err != nil {
		if errors.Is(err, municipality.ErrMunicipalityNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Municipality not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get municipality", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to get municipality")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, m)
}
