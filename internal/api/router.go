package api

import (
	"net/http"

	"github.com/kainan-collective/kainan/internal/auth"
	"github.com/kainan-collective/kainan/internal/middleware"
)

// RouterConfig bundles the handlers and auth dependencies for the API routes.
type RouterConfig struct {
	Municipalities *MunicipalityHandlers
	Dishes         *DishHandlers
	Restaurants    *RestaurantHandlers
	Ratings        *RatingHandlers
	Favorites      *FavoriteHandlers
	Curation       *CurationHandlers
	Uploads        *UploadHandlers
	Health         *HealthHandlers

	JWTService *auth.JWTService

	// WriteLimiter optionally rate-limits mutating endpoints; nil disables it.
	WriteLimiter func(http.Handler) http.Handler
}

// NewRouter builds the API route table. Authentication requirements are
// applied per route: reads are public, writes require a valid access
// token, and curation routes additionally enforce role checks in the
// service layer.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(cfg.JWTService)
	optionalAuth := middleware.OptionalAuth(cfg.JWTService)
	limited := func(h http.Handler) http.Handler {
		if cfg.WriteLimiter != nil {
			h = cfg.WriteLimiter(h)
		}
		return h
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return limited(requireAuth(h))
	}
	public := func(h http.HandlerFunc) http.Handler {
		return optionalAuth(h)
	}

	// Service info and probes
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, r.Context(), http.StatusOK, map[string]string{
			"service": "kainan-api",
			"version": "0.1.0",
		})
	})
	mux.HandleFunc("GET /health", cfg.Health.Health)
	mux.HandleFunc("GET /ready", cfg.Health.Ready)

	// Municipalities
	mux.Handle("GET /municipalities", public(cfg.Municipalities.ListMunicipalities))
	mux.Handle("POST /municipalities", authed(cfg.Municipalities.CreateMunicipality))
	mux.Handle("GET /municipalities/{id}", public(cfg.Municipalities.GetMunicipality))

	// Municipality-scoped listings
	mux.Handle("GET /municipalities/{id}/dishes", public(cfg.Dishes.ListDishes))
	mux.Handle("GET /municipalities/{id}/dishes/top", public(cfg.Dishes.TopDishes))
	mux.Handle("GET /municipalities/{id}/restaurants", public(cfg.Restaurants.ListRestaurants))
	mux.Handle("GET /municipalities/{id}/restaurants/top", public(cfg.Restaurants.TopRestaurants))
	mux.Handle("GET /municipalities/{id}/restaurants/by-dish", public(cfg.Restaurants.RestaurantsByDish))

	// Dishes
	mux.Handle("POST /dishes", authed(cfg.Dishes.CreateDish))
	mux.Handle("GET /dishes/{id}", public(cfg.Dishes.GetDish))
	mux.Handle("PUT /dishes/{id}", authed(cfg.Dishes.UpdateDish))

	// Restaurants
	mux.Handle("POST /restaurants", authed(cfg.Restaurants.CreateRestaurant))
	mux.Handle("GET /restaurants/{id}", public(cfg.Restaurants.GetRestaurant))
	mux.Handle("PUT /restaurants/{id}", authed(cfg.Restaurants.UpdateRestaurant))

	// Ratings
	mux.Handle("POST /dishes/{id}/ratings", authed(cfg.Ratings.SubmitDishRating))
	mux.Handle("GET /dishes/{id}/ratings", public(cfg.Ratings.ListDishRatings))
	mux.Handle("POST /restaurants/{id}/ratings", authed(cfg.Ratings.SubmitRestaurantRating))
	mux.Handle("GET /restaurants/{id}/ratings", public(cfg.Ratings.ListRestaurantRatings))
	mux.Handle("DELETE /ratings/{id}", authed(cfg.Ratings.DeleteRating))

	// Favorites
	mux.Handle("POST /favorites", authed(cfg.Favorites.AddFavorite))
	mux.Handle("GET /favorites", requireAuth(http.HandlerFunc(cfg.Favorites.ListFavorites)))
	mux.Handle("DELETE /favorites/{kind}/{id}", authed(cfg.Favorites.RemoveFavorite))

	// Curation (admin)
	mux.Handle("PATCH /admin/dishes/{id}/curation", authed(cfg.Curation.CurateDish))
	mux.Handle("PATCH /admin/restaurants/{id}/curation", authed(cfg.Curation.CurateRestaurant))
	mux.Handle("GET /admin/audit", requireAuth(http.HandlerFunc(cfg.Curation.AuditHistory)))

	// Uploads
	mux.Handle("POST /uploads/sign", authed(cfg.Uploads.SignUpload))

	return mux
}
