package favorite

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kainan-collective/kainan/internal/rating"
)

// Repository defines the interface for favorite storage.
type Repository interface {
	// Add stores a favorite. At most one favorite exists per
	// (user, target, kind); duplicates return ErrAlreadyFavorited.
	Add(ctx context.Context, f *Favorite) error

	// Remove deletes a user's favorite of a target.
	// Returns ErrFavoriteNotFound if none exists.
	Remove(ctx context.Context, userID, targetID string, kind rating.Kind) error

	// ListByUser retrieves a user's favorites, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Favorite, error)

	// CountByTarget returns how many users favorited the target.
	CountByTarget(ctx context.Context, targetID string, kind rating.Kind) (int, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu        sync.RWMutex
	favorites map[string]*Favorite
	byKey     map[string]string // "user:kind:target" -> favorite ID
}

// NewInMemoryRepository creates a new in-memory favorite repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		favorites: make(map[string]*Favorite),
		byKey:     make(map[string]string),
	}
}

func favKey(userID, targetID string, kind rating.Kind) string {
	return userID + ":" + string(kind) + ":" + targetID
}

// Add stores a favorite.
func (r *InMemoryRepository) Add(ctx context.Context, f *Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favKey(f.UserID, f.TargetID, f.TargetKind)
	if _, exists := r.byKey[key]; exists {
		return ErrAlreadyFavorited
	}

	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	copied := *f
	r.favorites[f.ID] = &copied
	r.byKey[key] = f.ID
	return nil
}

// Remove deletes a user's favorite of a target.
func (r *InMemoryRepository) Remove(ctx context.Context, userID, targetID string, kind rating.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favKey(userID, targetID, kind)
	id, exists := r.byKey[key]
	if !exists {
		return ErrFavoriteNotFound
	}
	delete(r.favorites, id)
	delete(r.byKey, key)
	return nil
}

// ListByUser retrieves a user's favorites, newest first.
func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string) ([]*Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Favorite
	for _, f := range r.favorites {
		if f.UserID == userID {
			copied := *f
			results = append(results, &copied)
		}
	}
	sortNewestFirst(results)
	return results, nil
}

// CountByTarget returns how many users favorited the target.
func (r *InMemoryRepository) CountByTarget(ctx context.Context, targetID string, kind rating.Kind) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, f := range r.favorites {
		if f.TargetID == targetID && f.TargetKind == kind {
			count++
		}
	}
	return count, nil
}

func sortNewestFirst(favorites []*Favorite) {
	sort.Slice(favorites, func(i, j int) bool {
		if !favorites[i].CreatedAt.Equal(favorites[j].CreatedAt) {
			return favorites[i].CreatedAt.After(favorites[j].CreatedAt)
		}
		return favorites[i].ID > favorites[j].ID
	})
}
