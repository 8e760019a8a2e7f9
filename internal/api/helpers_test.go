package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kainan-collective/kainan/internal/audit"
	"github.com/kainan-collective/kainan/internal/authz"
	"github.com/kainan-collective/kainan/internal/curation"
	"github.com/kainan-collective/kainan/internal/dish"
	"github.com/kainan-collective/kainan/internal/favorite"
	"github.com/kainan-collective/kainan/internal/middleware"
	"github.com/kainan-collective/kainan/internal/municipality"
	"github.com/kainan-collective/kainan/internal/rating"
	"github.com/kainan-collective/kainan/internal/restaurant"
)

// testEnv wires the in-memory repositories and handlers for handler tests.
type testEnv struct {
	municipalities *municipality.InMemoryRepository
	dishes         *dish.InMemoryRepository
	restaurants    *restaurant.InMemoryRepository
	ratings        *rating.InMemoryRepository
	favorites      *favorite.InMemoryRepository
	auditLog       *audit.InMemoryRepository

	aggregator      *rating.Aggregator
	curationService *curation.Service
	favoriteService *favorite.Service

	municipalityHandlers *MunicipalityHandlers
	dishHandlers         *DishHandlers
	restaurantHandlers   *RestaurantHandlers
	ratingHandlers       *RatingHandlers
	favoriteHandlers     *FavoriteHandlers
	curationHandlers     *CurationHandlers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	municipalities := municipality.NewInMemoryRepository()
	dishes := dish.NewInMemoryRepository()
	restaurants := restaurant.NewInMemoryRepository(dishes)
	ratings := rating.NewInMemoryRepository()
	favorites := favorite.NewInMemoryRepository()
	auditLog := audit.NewInMemoryRepository()

	aggregator := rating.NewAggregator(ratings, RatingTargets(dishes, restaurants), nil, logger)
	curationService := curation.NewService(dishes, restaurants, auditLog, logger)
	favoriteService := favorite.NewService(favorites, map[rating.Kind]favorite.PopularityStore{
		rating.KindDish:       dishes,
		rating.KindRestaurant: restaurants,
	}, logger)

	return &testEnv{
		municipalities:  municipalities,
		dishes:          dishes,
		restaurants:     restaurants,
		ratings:         ratings,
		favorites:       favorites,
		auditLog:        auditLog,
		aggregator:      aggregator,
		curationService: curationService,
		favoriteService: favoriteService,

		municipalityHandlers: NewMunicipalityHandlers(municipalities),
		dishHandlers:         NewDishHandlers(dishes, municipalities),
		restaurantHandlers:   NewRestaurantHandlers(restaurants, municipalities),
		ratingHandlers:       NewRatingHandlers(aggregator, ratings),
		favoriteHandlers:     NewFavoriteHandlers(favoriteService),
		curationHandlers:     NewCurationHandlers(curationService, dishes, restaurants),
	}
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser attaches an authenticated requester to the request context, the
// way the auth middleware does after validating a token.
func asUser(r *http.Request, id, role string) *http.Request {
	ctx := middleware.SetRequester(r.Context(), authz.Requester{ID: id, Role: role})
	return r.WithContext(ctx)
}

// decodeErrorCode extracts the error code from an error response body.
func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error.Code
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func seedMunicipality(t *testing.T, env *testEnv, name, slug string) *municipality.Municipality {
	t.Helper()
	m := &municipality.Municipality{Name: name, Slug: slug, Province: "Pampanga"}
	if err := env.municipalities.Insert(context.Background(), m); err != nil {
		t.Fatalf("seed municipality: %v", err)
	}
	return m
}

func seedDish(t *testing.T, env *testEnv, municipalityID, name string) *dish.Dish {
	t.Helper()
	d := &dish.Dish{MunicipalityID: municipalityID, Name: name}
	if err := env.dishes.Insert(context.Background(), d); err != nil {
		t.Fatalf("seed dish: %v", err)
	}
	return d
}

func seedRestaurant(t *testing.T, env *testEnv, municipalityID, name string) *restaurant.Restaurant {
	t.Helper()
	r := &restaurant.Restaurant{MunicipalityID: municipalityID, Name: name, Lat: 15.03, Lng: 120.68}
	if err := env.restaurants.Insert(context.Background(), r); err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	return r
}

func intPtr(v int) *int { return &v }
