package favorite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kainan-collective/kainan/internal/rating"
)

// PopularityStore adjusts an entity's popularity counter.
type PopularityStore interface {
	AdjustPopularity(ctx context.Context, id string, delta int) error
}

// Service manages favorites and keeps target popularity counters in sync:
// adding a favorite bumps the target's popularity by one, removing one
// decrements it.
type Service struct {
	favorites Repository
	targets   map[rating.Kind]PopularityStore
	logger    *slog.Logger
}

// NewService creates a favorite service. targets maps each supported
// kind to the store holding its popularity counter.
func NewService(favorites Repository, targets map[rating.Kind]PopularityStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{favorites: favorites, targets: targets, logger: logger}
}

// Add saves a target as a favorite of the user and increments the
// target's popularity. Duplicate favorites return ErrAlreadyFavorited
// without touching popularity.
func (s *Service) Add(ctx context.Context, userID, targetID string, kind rating.Kind) (*Favorite, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	store, ok := s.targets[kind]
	if !ok {
		return nil, fmt.Errorf("no popularity store registered for kind %q", kind)
	}

	f := &Favorite{UserID: userID, TargetID: targetID, TargetKind: kind}
	if err := s.favorites.Add(ctx, f); err != nil {
		return nil, err
	}

	if err := store.AdjustPopularity(ctx, targetID, 1); err != nil {
		// The favorite is saved either way; popularity drifts until the
		// next recount.
		s.logger.Error("failed to increment popularity",
			"target_id", targetID, "kind", kind, "error", err)
	}
	return f, nil
}

// Remove deletes the user's favorite and decrements the target's
// popularity.
func (s *Service) Remove(ctx context.Context, userID, targetID string, kind rating.Kind) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	store, ok := s.targets[kind]
	if !ok {
		return fmt.Errorf("no popularity store registered for kind %q", kind)
	}

	if err := s.favorites.Remove(ctx, userID, targetID, kind); err != nil {
		return err
	}

	if err := store.AdjustPopularity(ctx, targetID, -1); err != nil {
		s.logger.Error("failed to decrement popularity",
			"target_id", targetID, "kind", kind, "error", err)
	}
	return nil
}

// List returns the user's favorites, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Favorite, error) {
	return s.favorites.ListByUser(ctx, userID)
}
