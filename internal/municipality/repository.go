package municipality

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for municipality operations.
var (
	ErrMunicipalityNotFound = errors.New("municipality not found")
	ErrDuplicateSlug        = errors.New("municipality slug already exists")
)

// Repository defines the interface for municipality data operations.
type Repository interface {
	// Insert stores a new municipality. Fails with ErrDuplicateSlug when the
	// slug is already taken.
	Insert(ctx context.Context, m *Municipality) error

	// GetByID retrieves a municipality by its UUID.
	GetByID(ctx context.Context, id string) (*Municipality, error)

	// GetBySlug retrieves a municipality by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*Municipality, error)

	// List retrieves all municipalities ordered by name.
	List(ctx context.Context) ([]*Municipality, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu             sync.RWMutex
	municipalities map[string]*Municipality // UUID -> Municipality
	slugs          map[string]string        // slug -> UUID
}

// NewInMemoryRepository creates a new in-memory municipality repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		municipalities: make(map[string]*Municipality),
		slugs:          make(map[string]string),
	}
}

// Insert stores a new municipality.
func (r *InMemoryRepository) Insert(ctx context.Context, m *Municipality) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug := strings.ToLower(strings.TrimSpace(m.Slug))
	if _, exists := r.slugs[slug]; exists {
		return ErrDuplicateSlug
	}

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	m.Slug = slug

	copied := *m
	r.municipalities[m.ID] = &copied
	r.slugs[slug] = m.ID
	return nil
}

// GetByID retrieves a municipality by its UUID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Municipality, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.municipalities[id]
	if !ok {
		return nil, ErrMunicipalityNotFound
	}
	copied := *m
	return &copied, nil
}

// GetBySlug retrieves a municipality by its URL slug.
func (r *InMemoryRepository) GetBySlug(ctx context.Context, slug string) (*Municipality, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.slugs[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return nil, ErrMunicipalityNotFound
	}
	copied := *r.municipalities[id]
	return &copied, nil
}

// List retrieves all municipalities ordered by name.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Municipality, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Municipality, 0, len(r.municipalities))
	for _, m := range r.municipalities {
		copied := *m
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}
