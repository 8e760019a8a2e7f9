// Package curation applies manual ranking overrides to dishes and
// restaurants: panel ranks, featured ranks, and signature flags. Every
// change goes through a permission check and is recorded in the audit log.
package curation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kainan-collective/kainan/internal/audit"
	"github.com/kainan-collective/kainan/internal/authz"
	"github.com/kainan-collective/kainan/internal/dish"
	"github.com/kainan-collective/kainan/internal/restaurant"
)

// Errors returned by the curation service.
var (
	ErrForbidden   = errors.New("requester may not modify curation fields")
	ErrInvalidRank = errors.New("rank must be a positive integer")
)

// Result describes the outcome of a curation change.
type Result struct {
	// EvictedID is the entity that previously held the assigned rank
	// slot and was cleared, if any.
	EvictedID string
}

// Service mutates curation overlay fields with authorization and audit
// logging around the repository operations.
type Service struct {
	dishes      dish.Repository
	restaurants restaurant.Repository
	auditLog    audit.Repository
	logger      *slog.Logger
}

// NewService creates a curation service.
func NewService(dishes dish.Repository, restaurants restaurant.Repository, auditLog audit.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		dishes:      dishes,
		restaurants: restaurants,
		auditLog:    auditLog,
		logger:      logger,
	}
}

func validateRank(rank *int) error {
	if rank != nil && *rank < 1 {
		return ErrInvalidRank
	}
	return nil
}

func rankAction(set, clear string, rank *int) string {
	if rank == nil {
		return clear
	}
	return set
}

// record writes an audit entry for a curation change. Audit failures are
// logged but do not roll back the change itself; the rank mutation has
// already committed.
func (s *Service) record(ctx context.Context, change audit.Change) {
	if err := audit.RecordChange(ctx, s.auditLog, change); err != nil {
		s.logger.Error("failed to record curation audit entry",
			"entity_type", change.EntityType,
			"entity_id", change.EntityID,
			"action", change.Action,
			"error", err)
	}
}

// SetDishPanelRank assigns or clears a dish's panel rank within its
// municipality. Assigning an occupied rank evicts the current holder.
func (s *Service) SetDishPanelRank(ctx context.Context, requester authz.Requester, dishID string, rank *int) (*Result, error) {
	if !authz.Can(requester, authz.ActionCurationAssign, authz.Resource{}) {
		return nil, ErrForbidden
	}
	if err := validateRank(rank); err != nil {
		return nil, err
	}

	current, err := s.dishes.GetByID(ctx, dishID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dish: %w", err)
	}
	oldRank := current.PanelRank

	evicted, err := s.dishes.AssignPanelRank(ctx, dishID, rank)
	action := rankAction("set_panel_rank", "clear_panel_rank", rank)
	if err != nil {
		s.record(ctx, audit.Change{
			ActorID:    requester.ID,
			EntityType: "dish",
			EntityID:   dishID,
			Action:     action,
			Outcome:    "failure",
			OldRank:    oldRank,
			NewRank:    rank,
		})
		return nil, fmt.Errorf("failed to assign panel rank: %w", err)
	}

	s.record(ctx, audit.Change{
		ActorID:    requester.ID,
		EntityType: "dish",
		EntityID:   dishID,
		Action:     action,
		Outcome:    "success",
		OldRank:    oldRank,
		NewRank:    rank,
		EvictedID:  evicted,
	})
	return &Result{EvictedID: evicted}, nil
}

// SetDishFeaturedRank assigns or clears a dish's featured rank within its
// municipality. The featured flag follows the rank: set when a rank is
// assigned, cleared when the rank is removed.
func (s *Service) SetDishFeaturedRank(ctx context.Context, requester authz.Requester, dishID string, rank *int) (*Result, error) {
	if !authz.Can(requester, authz.ActionCurationAssign, authz.Resource{}) {
		return nil, ErrForbidden
	}
	if err := validateRank(rank); err != nil {
		return nil, err
	}

	current, err := s.dishes.GetByID(ctx, dishID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dish: %w", err)
	}
	oldRank := current.FeaturedRank

	evicted, err := s.dishes.AssignFeaturedRank(ctx, dishID, rank)
	action := rankAction("set_featured_rank", "clear_featured_rank", rank)
	if err != nil {
		s.record(ctx, audit.Change{
			ActorID:    requester.ID,
			EntityType: "dish",
			EntityID:   dishID,
			Action:     action,
			Outcome:    "failure",
			OldRank:    oldRank,
			NewRank:    rank,
		})
		return nil, fmt.Errorf("failed to assign featured rank: %w", err)
	}

	s.record(ctx, audit.Change{
		ActorID:    requester.ID,
		EntityType: "dish",
		EntityID:   dishID,
		Action:     action,
		Outcome:    "success",
		OldRank:    oldRank,
		NewRank:    rank,
		EvictedID:  evicted,
	})
	return &Result{EvictedID: evicted}, nil
}

// SetDishSignature marks or unmarks a dish as a signature dish of its
// municipality. Signature status breaks panel rank ties.
func (s *Service) SetDishSignature(ctx context.Context, requester authz.Requester, dishID string, signature bool) error {
	if !authz.Can(requester, authz.ActionCurationAssign, authz.Resource{}) {
		return ErrForbidden
	}

	action := "set_signature"
	if !signature {
		action = "clear_signature"
	}

	if err := s.dishes.SetSignature(ctx, dishID, signature); err != nil {
		s.record(ctx, audit.Change{
			ActorID:    requester.ID,
			EntityType: "dish",
			EntityID:   dishID,
			Action:     action,
			Outcome:    "failure",
		})
		return fmt.Errorf("failed to set signature flag: %w", err)
	}

	s.record(ctx, audit.Change{
		ActorID:    requester.ID,
		EntityType: "dish",
		EntityID:   dishID,
		Action:     action,
		Outcome:    "success",
	})
	return nil
}

// SetRestaurantFeaturedRank assigns or clears a restaurant's featured rank
// within its municipality. Assigning an occupied rank evicts the current
// holder.
func (s *Service) SetRestaurantFeaturedRank(ctx context.Context, requester authz.Requester, restaurantID string, rank *int) (*Result, error) {
	if !authz.Can(requester, authz.ActionCurationAssign, authz.Resource{}) {
		return nil, ErrForbidden
	}
	if err := validateRank(rank); err != nil {
		return nil, err
	}

	current, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant: %w", err)
	}
	oldRank := current.FeaturedRank

	evicted, err := s.restaurants.AssignFeaturedRank(ctx, restaurantID, rank)
	action := rankAction("set_featured_rank", "clear_featured_rank", rank)
	if err != nil {
		s.record(ctx, audit.Change{
			ActorID:    requester.ID,
			EntityType: "restaurant",
			EntityID:   restaurantID,
			Action:     action,
			Outcome:    "failure",
			OldRank:    oldRank,
			NewRank:    rank,
		})
		return nil, fmt.Errorf("failed to assign featured rank: %w", err)
	}

	s.record(ctx, audit.Change{
		ActorID:    requester.ID,
		EntityType: "restaurant",
		EntityID:   restaurantID,
		Action:     action,
		Outcome:    "success",
		OldRank:    oldRank,
		NewRank:    rank,
		EvictedID:  evicted,
	})
	return &Result{EvictedID: evicted}, nil
}

// History returns the audit trail for an entity, newest first. Only
// admins may read the audit log.
func (s *Service) History(ctx context.Context, requester authz.Requester, entityType, entityID string, limit int) ([]*audit.Entry, error) {
	if !authz.Can(requester, authz.ActionAuditRead, authz.Resource{}) {
		return nil, ErrForbidden
	}
	return s.auditLog.QueryByEntity(ctx, entityType, entityID, limit)
}
