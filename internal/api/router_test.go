package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kainan-collective/kainan/internal/auth"
	"github.com/kainan-collective/kainan/internal/authz"
	"github.com/kainan-collective/kainan/internal/dish"
)

// newTestRouter builds a router over the in-memory environment with real
// JWT validation on the authenticated routes.
func newTestRouter(t *testing.T, env *testEnv) (http.Handler, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService("router-test-secret")
	router := NewRouter(RouterConfig{
		Municipalities: env.municipalityHandlers,
		Dishes:         env.dishHandlers,
		Restaurants:    env.restaurantHandlers,
		Ratings:        env.ratingHandlers,
		Favorites:      env.favoriteHandlers,
		Curation:       env.curationHandlers,
		Uploads:        NewUploadHandlers(nil),
		Health:         NewHealthHandlers(HealthHandlersConfig{}),
		JWTService:     jwtService,
	})
	return router, jwtService
}

func bearerFor(t *testing.T, jwtService *auth.JWTService, userID, role string) string {
	t.Helper()
	token, err := jwtService.GenerateAccessToken(userID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func TestRouterPublicRoutes(t *testing.T) {
	env := newTestEnv(t)
	router, _ := newTestRouter(t, env)
	m := seedMunicipality(t, env, "San Fernando", "san-fernando")
	d := seedDish(t, env, m.ID, "Sisig")

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/municipalities", http.StatusOK},
		{http.MethodGet, "/municipalities/" + m.ID, http.StatusOK},
		{http.MethodGet, "/municipalities/san-fernando", http.StatusOK},
		{http.MethodGet, "/municipalities/" + m.ID + "/dishes", http.StatusOK},
		{http.MethodGet, "/municipalities/" + m.ID + "/dishes/top", http.StatusOK},
		{http.MethodGet, "/municipalities/" + m.ID + "/restaurants", http.StatusOK},
		{http.MethodGet, "/municipalities/" + m.ID + "/restaurants/top", http.StatusOK},
		{http.MethodGet, "/dishes/" + d.ID, http.StatusOK},
		{http.MethodGet, "/dishes/" + d.ID + "/ratings", http.StatusOK},
		{http.MethodGet, "/no-such-route", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRouterAuthenticatedRoutes(t *testing.T) {
	env := newTestEnv(t)
	router, jwtService := newTestRouter(t, env)
	m := seedMunicipality(t, env, "San Fernando", "san-fernando")
	d := seedDish(t, env, m.ID, "Sisig")

	t.Run("write without token rejected", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/dishes", CreateDishRequest{MunicipalityID: m.ID, Name: "Morcon"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("owner token can create dish", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/dishes", CreateDishRequest{MunicipalityID: m.ID, Name: "Morcon"})
		req.Header.Set("Authorization", bearerFor(t, jwtService, "owner-1", authz.RoleOwner))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
	})

	t.Run("user token can rate a dish", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/dishes/"+d.ID+"/ratings", SubmitRatingRequest{Score: 5})
		req.Header.Set("Authorization", bearerFor(t, jwtService, "user-1", authz.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
	})

	t.Run("admin token can curate via path params", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPatch, "/admin/dishes/"+d.ID+"/curation", map[string]any{"panel_rank": 1})
		req.Header.Set("Authorization", bearerFor(t, jwtService, "admin-1", authz.RoleAdmin))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp struct {
			Dish *dish.Dish `json:"dish"`
		}
		decodeJSON(t, rec, &resp)
		if resp.Dish.PanelRank == nil || *resp.Dish.PanelRank != 1 {
			t.Errorf("panel_rank = %v, want 1", resp.Dish.PanelRank)
		}
	})

	t.Run("favorites lifecycle through the router", func(t *testing.T) {
		token := bearerFor(t, jwtService, "user-2", authz.RoleUser)

		req := jsonRequest(t, http.MethodPost, "/favorites", AddFavoriteRequest{TargetID: d.ID, TargetKind: "dish"})
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
		}

		req = httptest.NewRequest(http.MethodGet, "/favorites", nil)
		req.Header.Set("Authorization", token)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list status = %d", rec.Code)
		}

		req = httptest.NewRequest(http.MethodDelete, "/favorites/dish/"+d.ID, nil)
		req.Header.Set("Authorization", token)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("remove status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("non-bearer scheme rejected", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/dishes", CreateDishRequest{MunicipalityID: m.ID, Name: "Bringhe"})
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}
