package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Validation errors for audit entries.
var (
	ErrInvalidEntityType = errors.New("entity type must be dish or restaurant")
	ErrInvalidAction     = errors.New("unknown audit action")
	ErrMissingActor      = errors.New("actor id cannot be empty")
)

// ValidEntityTypes defines the allowed entity types for audit logging.
var ValidEntityTypes = map[string]bool{
	"dish":       true,
	"restaurant": true,
}

// ValidActions defines the allowed actions for audit logging.
var ValidActions = map[string]bool{
	"set_panel_rank":      true,
	"clear_panel_rank":    true,
	"set_featured_rank":   true,
	"clear_featured_rank": true,
	"set_signature":       true,
	"clear_signature":     true,
}

// validateChange validates the required fields of a change record.
func validateChange(c Change) error {
	if c.ActorID == "" {
		return ErrMissingActor
	}
	if !ValidEntityTypes[c.EntityType] {
		return ErrInvalidEntityType
	}
	if !ValidActions[c.Action] {
		return ErrInvalidAction
	}
	return nil
}

// chainHash computes the SHA-256 hash linking an entry to its predecessor.
func chainHash(previousHash string, e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%d",
		previousHash, e.ActorID, e.EntityType, e.EntityID, e.Action,
		e.Outcome, e.CreatedAt.UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}

// Repository defines the interface for audit log operations.
type Repository interface {
	// Record appends a curation change to the audit log.
	// Returns the created entry.
	Record(ctx context.Context, change Change) (*Entry, error)

	// QueryByEntity retrieves entries for a specific entity, newest first.
	// Limit of 0 means no limit.
	QueryByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*Entry, error)

	// QueryByActor retrieves entries for a specific actor, newest first.
	// Limit of 0 means no limit.
	QueryByActor(ctx context.Context, actorID string, limit int) ([]*Entry, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex; insertion order is preserved so the hash chain
// and newest-first queries stay consistent.
type InMemoryRepository struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	order    []string
	lastHash string
}

// NewInMemoryRepository creates a new in-memory audit repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		entries: make(map[string]*Entry),
		order:   make([]string, 0),
	}
}

// Record appends a curation change to the audit log.
func (r *InMemoryRepository) Record(ctx context.Context, change Change) (*Entry, error) {
	if err := validateChange(change); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:         uuid.New().String(),
		ActorID:    change.ActorID,
		EntityType: change.EntityType,
		EntityID:   change.EntityID,
		Action:     change.Action,
		Outcome:    change.Outcome,
		CreatedAt:  time.Now().UTC(),
		OldRank:    change.OldRank,
		NewRank:    change.NewRank,
		EvictedID:  change.EvictedID,
		RequestID:  change.RequestID,
		IPAddress:  change.IPAddress,
	}

	r.mu.Lock()
	entry.PreviousHash = r.lastHash
	r.lastHash = chainHash(r.lastHash, entry)
	r.entries[entry.ID] = entry
	r.order = append(r.order, entry.ID)
	r.mu.Unlock()

	copied := *entry
	return &copied, nil
}

// QueryByEntity retrieves entries for a specific entity, newest first.
func (r *InMemoryRepository) QueryByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Entry
	for i := len(r.order) - 1; i >= 0; i-- {
		entry := r.entries[r.order[i]]
		if entry.EntityType == entityType && entry.EntityID == entityID {
			copied := *entry
			results = append(results, &copied)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// QueryByActor retrieves entries for a specific actor, newest first.
func (r *InMemoryRepository) QueryByActor(ctx context.Context, actorID string, limit int) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Entry
	for i := len(r.order) - 1; i >= 0; i-- {
		entry := r.entries[r.order[i]]
		if entry.ActorID == actorID {
			copied := *entry
			results = append(results, &copied)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}
