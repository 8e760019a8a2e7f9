package restaurant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kainan-collective/kainan/internal/geo"
)

// Common errors for restaurant operations.
var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
)

// Repository defines the interface for restaurant data operations.
// AssignFeaturedRank carries the same atomic evict-then-set guarantee as
// the dish repository.
type Repository interface {
	// Insert stores a new restaurant, deriving its coarse geohash.
	Insert(ctx context.Context, rest *Restaurant) error

	// Update modifies an existing restaurant's descriptive fields.
	Update(ctx context.Context, rest *Restaurant) error

	// GetByID retrieves a restaurant by its UUID.
	GetByID(ctx context.Context, id string) (*Restaurant, error)

	// ListByMunicipality retrieves all restaurants for a municipality.
	ListByMunicipality(ctx context.Context, municipalityID string) ([]*Restaurant, error)

	// ListByDishName retrieves restaurants in a municipality that serve a
	// dish with the given name (case-insensitive).
	ListByDishName(ctx context.Context, municipalityID, dishName string) ([]*Restaurant, error)

	// UpdateAggregates persists the denormalized rating aggregate onto the
	// restaurant row as a single atomic update scoped by id.
	UpdateAggregates(ctx context.Context, id string, averageRating float64, totalRatings int) error

	// AdjustPopularity adds delta to the popularity counter, clamping at zero.
	AdjustPopularity(ctx context.Context, id string, delta int) error

	// AssignFeaturedRank sets featured/featured_rank, evicting the rank from
	// any other restaurant in the same municipality first. A nil rank clears
	// both fields on the target only. Returns the evicted restaurant ID, or
	// "" when no eviction occurred.
	AssignFeaturedRank(ctx context.Context, id string, rank *int) (string, error)
}

// DishLookup resolves which restaurants serve a named dish. The in-memory
// repository uses it for ListByDishName; the Postgres implementation joins
// the dishes table directly.
type DishLookup interface {
	RestaurantIDsForDish(ctx context.Context, municipalityID, dishName string) ([]string, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu          sync.RWMutex
	restaurants map[string]*Restaurant
	dishLookup  DishLookup
}

// NewInMemoryRepository creates a new in-memory restaurant repository.
// dishLookup may be nil when ListByDishName is not exercised.
func NewInMemoryRepository(dishLookup DishLookup) *InMemoryRepository {
	return &InMemoryRepository{
		restaurants: make(map[string]*Restaurant),
		dishLookup:  dishLookup,
	}
}

// Insert stores a new restaurant, deriving its coarse geohash.
func (r *InMemoryRepository) Insert(ctx context.Context, rest *Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rest.ID == "" {
		rest.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if rest.CreatedAt.IsZero() {
		rest.CreatedAt = now
	}
	rest.UpdatedAt = now
	rest.Geohash = geo.Encode(rest.Lat, rest.Lng, geo.DefaultPrecision)

	r.restaurants[rest.ID] = rest.clone()
	return nil
}

// Update modifies an existing restaurant's descriptive fields.
// Aggregate and curation fields on the stored row are preserved.
func (r *InMemoryRepository) Update(ctx context.Context, rest *Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.restaurants[rest.ID]
	if !ok {
		return ErrRestaurantNotFound
	}

	updated := rest.clone()
	updated.Geohash = geo.Encode(rest.Lat, rest.Lng, geo.DefaultPrecision)
	updated.AverageRating = stored.AverageRating
	updated.TotalRatings = stored.TotalRatings
	updated.Popularity = stored.Popularity
	updated.Featured = stored.Featured
	updated.FeaturedRank = stored.FeaturedRank
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.restaurants[rest.ID] = updated
	return nil
}

// GetByID retrieves a restaurant by its UUID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rest, ok := r.restaurants[id]
	if !ok {
		return nil, ErrRestaurantNotFound
	}
	return rest.clone(), nil
}

// ListByMunicipality retrieves all restaurants for a municipality.
func (r *InMemoryRepository) ListByMunicipality(ctx context.Context, municipalityID string) ([]*Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Restaurant
	for _, rest := range r.restaurants {
		if rest.MunicipalityID == municipalityID {
			result = append(result, rest.clone())
		}
	}
	return result, nil
}

// ListByDishName retrieves restaurants in a municipality that serve the
// named dish.
func (r *InMemoryRepository) ListByDishName(ctx context.Context, municipalityID, dishName string) ([]*Restaurant, error) {
	if r.dishLookup == nil {
		return nil, nil
	}
	ids, err := r.dishLookup.RestaurantIDsForDish(ctx, municipalityID, strings.TrimSpace(dishName))
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Restaurant
	for _, id := range ids {
		if rest, ok := r.restaurants[id]; ok {
			result = append(result, rest.clone())
		}
	}
	return result, nil
}

// UpdateAggregates persists the denormalized rating aggregate.
func (r *InMemoryRepository) UpdateAggregates(ctx context.Context, id string, averageRating float64, totalRatings int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rest, ok := r.restaurants[id]
	if !ok {
		return ErrRestaurantNotFound
	}
	rest.AverageRating = averageRating
	rest.TotalRatings = totalRatings
	rest.UpdatedAt = time.Now().UTC()
	return nil
}

// AdjustPopularity adds delta to the popularity counter.
func (r *InMemoryRepository) AdjustPopularity(ctx context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rest, ok := r.restaurants[id]
	if !ok {
		return ErrRestaurantNotFound
	}
	rest.Popularity += delta
	if rest.Popularity < 0 {
		rest.Popularity = 0
	}
	rest.UpdatedAt = time.Now().UTC()
	return nil
}

// AssignFeaturedRank sets featured/featured_rank, evicting any other holder
// of the same rank within the municipality.
func (r *InMemoryRepository) AssignFeaturedRank(ctx context.Context, id string, rank *int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.restaurants[id]
	if !ok {
		return "", ErrRestaurantNotFound
	}

	evicted := ""
	if rank != nil {
		for otherID, other := range r.restaurants {
			if otherID == id {
				continue
			}
			if other.MunicipalityID == target.MunicipalityID &&
				other.FeaturedRank != nil && *other.FeaturedRank == *rank {
				other.FeaturedRank = nil
				other.UpdatedAt = time.Now().UTC()
				evicted = otherID
				break
			}
		}
		assigned := *rank
		target.FeaturedRank = &assigned
		target.Featured = true
	} else {
		target.FeaturedRank = nil
		target.Featured = false
	}
	target.UpdatedAt = time.Now().UTC()
	return evicted, nil
}
