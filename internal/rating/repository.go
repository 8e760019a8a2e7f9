package rating

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UpsertResult reports whether an upsert inserted a new entry or replaced
// an existing one.
type UpsertResult struct {
	Inserted bool
	Entry    *Entry
}

// Repository defines the interface for rating entry persistence.
type Repository interface {
	// Upsert inserts a new entry or, when one already exists for
	// (AuthorID, TargetID, TargetKind), updates its score, comment,
	// verified flag, and updated_at in place. The stored weight is
	// preserved on update and defaults to DefaultWeight on insert.
	Upsert(ctx context.Context, e *Entry) (*UpsertResult, error)

	// GetByID retrieves an entry by its UUID.
	GetByID(ctx context.Context, id string) (*Entry, error)

	// Delete removes an entry by its UUID.
	Delete(ctx context.Context, id string) error

	// ListByTarget retrieves all entries for a target, newest first.
	ListByTarget(ctx context.Context, targetID string, kind Kind) ([]*Entry, error)

	// AggregateForTarget computes the weighted aggregate over all entries
	// for the target: average = Σ(score·weight) / Σ(weight), total = count.
	// An empty entry set yields a zero aggregate.
	AggregateForTarget(ctx context.Context, targetID string, kind Kind) (Aggregate, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*Entry // UUID -> Entry
	byKey   map[string]string // author:kind:target -> UUID
}

// NewInMemoryRepository creates a new in-memory rating repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		entries: make(map[string]*Entry),
		byKey:   make(map[string]string),
	}
}

func entryKey(authorID, targetID string, kind Kind) string {
	return authorID + ":" + string(kind) + ":" + targetID
}

// Upsert inserts a new entry or updates the author's existing entry for
// the same target in place.
func (r *InMemoryRepository) Upsert(ctx context.Context, e *Entry) (*UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := entryKey(e.AuthorID, e.TargetID, e.TargetKind)

	if existingID, ok := r.byKey[key]; ok {
		existing := r.entries[existingID]
		existing.Score = e.Score
		existing.Comment = e.Comment
		existing.IsVerifiedVisit = e.IsVerifiedVisit
		existing.UpdatedAt = now

		copied := *existing
		return &UpsertResult{Inserted: false, Entry: &copied}, nil
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Weight == 0 {
		e.Weight = DefaultWeight
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	copied := *e
	r.entries[e.ID] = &copied
	r.byKey[key] = e.ID

	result := *e
	return &UpsertResult{Inserted: true, Entry: &result}, nil
}

// GetByID retrieves an entry by its UUID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	copied := *e
	return &copied, nil
}

// Delete removes an entry by its UUID.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	delete(r.byKey, entryKey(e.AuthorID, e.TargetID, e.TargetKind))
	return nil
}

// ListByTarget retrieves all entries for a target, newest first with a
// stable id tiebreak.
func (r *InMemoryRepository) ListByTarget(ctx context.Context, targetID string, kind Kind) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Entry
	for _, e := range r.entries {
		if e.TargetID == targetID && e.TargetKind == kind {
			copied := *e
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// AggregateForTarget computes the weighted aggregate over all entries for
// the target.
func (r *InMemoryRepository) AggregateForTarget(ctx context.Context, targetID string, kind Kind) (Aggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var weightedSum, weightTotal float64
	count := 0
	for _, e := range r.entries {
		if e.TargetID == targetID && e.TargetKind == kind {
			weightedSum += float64(e.Score) * e.Weight
			weightTotal += e.Weight
			count++
		}
	}

	if count == 0 || weightTotal == 0 {
		return Aggregate{}, nil
	}
	return Aggregate{
		AverageRating: weightedSum / weightTotal,
		TotalRatings:  count,
	}, nil
}
