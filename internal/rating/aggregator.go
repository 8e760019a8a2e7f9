package rating

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kainan-collective/kainan/internal/authz"
	"github.com/kainan-collective/kainan/internal/stats"
)

// TargetStore persists the denormalized aggregate onto a rateable entity.
// The dish and restaurant repositories satisfy this interface; the write
// must be a single atomic update scoped by the target id.
type TargetStore interface {
	UpdateAggregates(ctx context.Context, id string, averageRating float64, totalRatings int) error
}

// TargetChecker reports whether a rateable entity exists. Implemented by
// adapters over the dish and restaurant repositories.
type TargetChecker interface {
	TargetExists(ctx context.Context, id string) (bool, error)
}

// Target bundles the stores for one rateable entity kind.
type Target struct {
	Store   TargetStore
	Checker TargetChecker
}

// Aggregator keeps average_rating/total_ratings on rateable entities
// synchronized with the rating entry store. Every entry mutation flows
// through it: validate, write the entry, recompute the aggregate, return.
//
// Concurrent recomputes for the same target may race; the resulting
// aggregate write is last-write-wins and converges on the next mutation
// for that target.
type Aggregator struct {
	entries Repository
	targets map[Kind]Target
	stats   *stats.MutationStats
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator over the given entry repository and
// per-kind target stores.
func NewAggregator(entries Repository, targets map[Kind]Target, mutations *stats.MutationStats, logger *slog.Logger) *Aggregator {
	if mutations == nil {
		mutations = stats.NewMutationStats()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		entries: entries,
		targets: targets,
		stats:   mutations,
		logger:  logger,
	}
}

// Stats exposes the mutation counters for periodic reporting.
func (a *Aggregator) Stats() *stats.MutationStats {
	return a.stats
}

// UpsertRequest carries the fields of a rating submission.
type UpsertRequest struct {
	AuthorID        string
	TargetID        string
	TargetKind      Kind
	Score           int
	Comment         string
	IsVerifiedVisit bool
}

func (req UpsertRequest) validate() error {
	if err := ValidateScore(req.Score); err != nil {
		return err
	}
	if strings.TrimSpace(req.AuthorID) == "" || strings.TrimSpace(req.TargetID) == "" {
		return ErrInvalidRating
	}
	if !req.TargetKind.Valid() {
		return ErrInvalidRating
	}
	return nil
}

// UpsertRating validates and persists a rating submission, then recomputes
// the target's aggregate. A second submission by the same author for the
// same target replaces the stored entry rather than adding one.
//
// When the entry write succeeds but the recompute fails, the persisted
// entry is returned together with the recompute error: the aggregate is
// stale until the next mutation for the target, and the caller decides how
// to report that.
func (a *Aggregator) UpsertRating(ctx context.Context, req UpsertRequest) (*Entry, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	target, ok := a.targets[req.TargetKind]
	if !ok {
		return nil, ErrInvalidRating
	}
	exists, err := target.Checker.TargetExists(ctx, req.TargetID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rating target: %w", err)
	}
	if !exists {
		return nil, ErrTargetNotFound
	}

	result, err := a.entries.Upsert(ctx, &Entry{
		AuthorID:        req.AuthorID,
		TargetID:        req.TargetID,
		TargetKind:      req.TargetKind,
		Score:           req.Score,
		Weight:          DefaultWeight,
		Comment:         req.Comment,
		IsVerifiedVisit: req.IsVerifiedVisit,
	})
	if err != nil {
		return nil, err
	}

	if result.Inserted {
		a.stats.RecordInsert()
	} else {
		a.stats.RecordUpdate()
	}

	if err := a.Recompute(ctx, req.TargetID, req.TargetKind); err != nil {
		a.logger.Error("aggregate recompute failed after rating write",
			"target_id", req.TargetID,
			"target_kind", req.TargetKind,
			"error", err,
		)
		return result.Entry, err
	}
	return result.Entry, nil
}

// DeleteRating removes a rating entry and recomputes the target aggregate.
// Only the entry's author or an elevated role may delete.
func (a *Aggregator) DeleteRating(ctx context.Context, entryID string, requester authz.Requester) error {
	entry, err := a.entries.GetByID(ctx, entryID)
	if err != nil {
		return err
	}

	if !authz.Can(requester, authz.ActionRatingDelete, authz.Resource{AuthorID: entry.AuthorID}) {
		return ErrForbidden
	}

	if err := a.entries.Delete(ctx, entryID); err != nil {
		return err
	}
	a.stats.RecordDelete()

	if err := a.Recompute(ctx, entry.TargetID, entry.TargetKind); err != nil {
		a.logger.Error("aggregate recompute failed after rating delete",
			"target_id", entry.TargetID,
			"target_kind", entry.TargetKind,
			"error", err,
		)
		return err
	}
	return nil
}

// Recompute derives the aggregate from the current entry set and persists
// it onto the target row. Deleting the last entry resets the aggregate to
// zero.
func (a *Aggregator) Recompute(ctx context.Context, targetID string, kind Kind) error {
	target, ok := a.targets[kind]
	if !ok {
		return ErrInvalidRating
	}

	agg, err := a.entries.AggregateForTarget(ctx, targetID, kind)
	if err != nil {
		return err
	}

	if err := target.Store.UpdateAggregates(ctx, targetID, agg.AverageRating, agg.TotalRatings); err != nil {
		return fmt.Errorf("failed to persist aggregate: %w", err)
	}
	return nil
}
