package dish

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for dish operations.
var (
	ErrDishNotFound = errors.New("dish not found")
)

// Repository defines the interface for dish data operations.
//
// AssignPanelRank and AssignFeaturedRank perform the evict-then-set step
// atomically: implementations must guarantee that after either call at most
// one dish per municipality holds any given non-null rank value.
type Repository interface {
	// Insert stores a new dish.
	Insert(ctx context.Context, d *Dish) error

	// Update modifies an existing dish's descriptive fields.
	Update(ctx context.Context, d *Dish) error

	// GetByID retrieves a dish by its UUID.
	GetByID(ctx context.Context, id string) (*Dish, error)

	// ListByMunicipality retrieves all dishes for a municipality.
	// Ordering is unspecified; callers rank the result.
	ListByMunicipality(ctx context.Context, municipalityID string) ([]*Dish, error)

	// UpdateAggregates persists the denormalized rating aggregate onto the
	// dish row as a single atomic update scoped by id.
	UpdateAggregates(ctx context.Context, id string, averageRating float64, totalRatings int) error

	// AdjustPopularity adds delta to the dish's popularity counter,
	// clamping at zero.
	AdjustPopularity(ctx context.Context, id string, delta int) error

	// AssignPanelRank sets panel_rank on the dish, evicting the rank from
	// any other dish in the same municipality first. A nil rank clears the
	// field on the target dish only. Returns the ID of the evicted dish,
	// or "" when no eviction occurred.
	AssignPanelRank(ctx context.Context, id string, rank *int) (string, error)

	// AssignFeaturedRank sets featured/featured_rank on the dish with the
	// same single-occupancy guarantee as AssignPanelRank. A non-nil rank
	// also sets featured = true; a nil rank clears both fields.
	AssignFeaturedRank(ctx context.Context, id string, rank *int) (string, error)

	// SetSignature toggles the is_signature flag on the dish.
	SetSignature(ctx context.Context, id string, signature bool) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex; rank eviction runs under the write lock, which
// provides the read-modify-write guard the overlay requires.
type InMemoryRepository struct {
	mu     sync.RWMutex
	dishes map[string]*Dish
}

// NewInMemoryRepository creates a new in-memory dish repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		dishes: make(map[string]*Dish),
	}
}

// Insert stores a new dish.
func (r *InMemoryRepository) Insert(ctx context.Context, d *Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	r.dishes[d.ID] = d.clone()
	return nil
}

// Update modifies an existing dish's descriptive fields.
// Aggregate and curation fields on the stored row are preserved.
func (r *InMemoryRepository) Update(ctx context.Context, d *Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.dishes[d.ID]
	if !ok {
		return ErrDishNotFound
	}

	updated := d.clone()
	updated.AverageRating = stored.AverageRating
	updated.TotalRatings = stored.TotalRatings
	updated.Popularity = stored.Popularity
	updated.Featured = stored.Featured
	updated.FeaturedRank = stored.FeaturedRank
	updated.IsSignature = stored.IsSignature
	updated.PanelRank = stored.PanelRank
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.dishes[d.ID] = updated
	return nil
}

// GetByID retrieves a dish by its UUID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Dish, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dishes[id]
	if !ok {
		return nil, ErrDishNotFound
	}
	return d.clone(), nil
}

// ListByMunicipality retrieves all dishes for a municipality.
func (r *InMemoryRepository) ListByMunicipality(ctx context.Context, municipalityID string) ([]*Dish, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Dish
	for _, d := range r.dishes {
		if d.MunicipalityID == municipalityID {
			result = append(result, d.clone())
		}
	}
	return result, nil
}

// RestaurantIDsForDish returns the restaurants in a municipality serving
// a dish with the given name, matched case-insensitively.
func (r *InMemoryRepository) RestaurantIDsForDish(ctx context.Context, municipalityID, dishName string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, d := range r.dishes {
		if d.MunicipalityID != municipalityID || d.RestaurantID == nil {
			continue
		}
		if !strings.EqualFold(d.Name, dishName) {
			continue
		}
		if !seen[*d.RestaurantID] {
			seen[*d.RestaurantID] = true
			ids = append(ids, *d.RestaurantID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// UpdateAggregates persists the denormalized rating aggregate.
func (r *InMemoryRepository) UpdateAggregates(ctx context.Context, id string, averageRating float64, totalRatings int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dishes[id]
	if !ok {
		return ErrDishNotFound
	}
	d.AverageRating = averageRating
	d.TotalRatings = totalRatings
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// AdjustPopularity adds delta to the dish's popularity counter.
func (r *InMemoryRepository) AdjustPopularity(ctx context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dishes[id]
	if !ok {
		return ErrDishNotFound
	}
	d.Popularity += delta
	if d.Popularity < 0 {
		d.Popularity = 0
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// AssignPanelRank sets panel_rank on the dish, evicting any other holder
// of the same rank within the municipality.
func (r *InMemoryRepository) AssignPanelRank(ctx context.Context, id string, rank *int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.dishes[id]
	if !ok {
		return "", ErrDishNotFound
	}

	evicted := ""
	if rank != nil {
		for otherID, other := range r.dishes {
			if otherID == id {
				continue
			}
			if other.MunicipalityID == target.MunicipalityID &&
				other.PanelRank != nil && *other.PanelRank == *rank {
				other.PanelRank = nil
				other.UpdatedAt = time.Now().UTC()
				evicted = otherID
				break
			}
		}
		assigned := *rank
		target.PanelRank = &assigned
	} else {
		target.PanelRank = nil
	}
	target.UpdatedAt = time.Now().UTC()
	return evicted, nil
}

// AssignFeaturedRank sets featured/featured_rank on the dish, evicting any
// other holder of the same rank within the municipality.
func (r *InMemoryRepository) AssignFeaturedRank(ctx context.Context, id string, rank *int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.dishes[id]
	if !ok {
		return "", ErrDishNotFound
	}

	evicted := ""
	if rank != nil {
		for otherID, other := range r.dishes {
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

// SetSignature toggles the is_signature flag on the dish.
func (r *InMemoryRepository) SetSignature(ctx context.Context, id string, signature bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dishes[id]
	if !ok {
		return ErrDishNotFound
	}
	d.IsSignature = signature
	d.UpdatedAt = time.Now().UTC()
	return nil
}
