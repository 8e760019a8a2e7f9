package rating

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kainan-collective/kainan/internal/authz"
)

// memTarget is a minimal rateable target store for aggregator tests.
type memTarget struct {
	exists    map[string]bool
	average   map[string]float64
	total     map[string]int
	updateErr error
}

func newMemTarget(ids ...string) *memTarget {
	t := &memTarget{
		exists:  make(map[string]bool),
		average: make(map[string]float64),
		total:   make(map[string]int),
	}
	for _, id := range ids {
		t.exists[id] = true
	}
	return t
}

func (m *memTarget) UpdateAggregates(ctx context.Context, id string, averageRating float64, totalRatings int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.average[id] = averageRating
	m.total[id] = totalRatings
	return nil
}

func (m *memTarget) TargetExists(ctx context.Context, id string) (bool, error) {
	return m.exists[id], nil
}

func newTestAggregator(dishes *memTarget) *Aggregator {
	return NewAggregator(NewInMemoryRepository(), map[Kind]Target{
		KindDish: {Store: dishes, Checker: dishes},
	}, nil, nil)
}

func TestUpsertRatingComputesWeightedAverage(t *testing.T) {
	dishes := newMemTarget("d1")
	agg := newTestAggregator(dishes)
	ctx := context.Background()

	// Scores 5, 3, 4 with the last author's weight raised to 2 gives
	// (5 + 3 + 8) / 4 = 4.0.
	authors := []struct {
		id    string
		score int
	}{
		{"u1", 5},
		{"u2", 3},
		{"u3", 4},
	}
	var lastEntry *Entry
	for _, a := range authors {
		entry, err := agg.UpsertRating(ctx, UpsertRequest{
			AuthorID:   a.id,
			TargetID:   "d1",
			TargetKind: KindDish,
			Score:      a.score,
		})
		if err != nil {
			t.Fatalf("UpsertRating(%s) error = %v", a.id, err)
		}
		lastEntry = entry
	}

	// Double u3's weight directly in the store, then recompute.
	repo := agg.entries.(*InMemoryRepository)
	repo.mu.Lock()
	repo.entries[lastEntry.ID].Weight = 2.0
	repo.mu.Unlock()
	if err := agg.Recompute(ctx, "d1", KindDish); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	if got := dishes.average["d1"]; math.Abs(got-4.0) > 1e-9 {
		t.Errorf("average = %v, want 4.0", got)
	}
	if got := dishes.total["d1"]; got != 3 {
		t.Errorf("total = %d, want 3", got)
	}
}

func TestUpsertRatingReplacesExisting(t *testing.T) {
	dishes := newMemTarget("d1")
	agg := newTestAggregator(dishes)
	ctx := context.Background()

	first, err := agg.UpsertRating(ctx, UpsertRequest{
		AuthorID: "u1", TargetID: "d1", TargetKind: KindDish, Score: 2,
	})
	if err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}
	second, err := agg.UpsertRating(ctx, UpsertRequest{
		AuthorID: "u1", TargetID: "d1", TargetKind: KindDish, Score: 5,
	})
	if err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("re-rating created a new entry: %s vs %s", first.ID, second.ID)
	}
	if dishes.total["d1"] != 1 {
		t.Errorf("total = %d, want 1", dishes.total["d1"])
	}
	if math.Abs(dishes.average["d1"]-5.0) > 1e-9 {
		t.Errorf("average = %v, want 5.0", dishes.average["d1"])
	}
}

func TestUpsertRatingValidation(t *testing.T) {
	dishes := newMemTarget("d1")
	agg := newTestAggregator(dishes)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     UpsertRequest
		wantErr error
	}{
		{
			name:    "score above max",
			req:     UpsertRequest{AuthorID: "u1", TargetID: "d1", TargetKind: KindDish, Score: 6},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "score below min",
			req:     UpsertRequest{AuthorID: "u1", TargetID: "d1", TargetKind: KindDish, Score: 0},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "empty author",
			req:     UpsertRequest{TargetID: "d1", TargetKind: KindDish, Score: 4},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "unknown kind",
			req:     UpsertRequest{AuthorID: "u1", TargetID: "d1", TargetKind: Kind("cafe"), Score: 4},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "missing target",
			req:     UpsertRequest{AuthorID: "u1", TargetID: "ghost", TargetKind: KindDish, Score: 4},
			wantErr: ErrTargetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.UpsertRating(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpsertRating() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Rejected submissions persist nothing.
	entries, err := agg.entries.ListByTarget(ctx, "d1", KindDish)
	if err != nil {
		t.Fatalf("ListByTarget() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected submissions persisted %d entries", len(entries))
	}
}

func TestDeleteRatingAuthorization(t *testing.T) {
	dishes := newMemTarget("d1")
	agg := newTestAggregator(dishes)
	ctx := context.Background()

	entry, err := agg.UpsertRating(ctx, UpsertRequest{
		AuthorID: "u1", TargetID: "d1", TargetKind: KindDish, Score: 4,
	})
	if err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}

	stranger := authz.Requester{ID: "u2", Role: authz.RoleUser}
	if err := agg.DeleteRating(ctx, entry.ID, stranger); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeleteRating() as stranger error = %v, want ErrForbidden", err)
	}

	moderator := authz.Requester{ID: "u3", Role: authz.RoleModerator}
	if err := agg.DeleteRating(ctx, entry.ID, moderator); err != nil {
		t.Errorf("DeleteRating() as moderator error = %v", err)
	}
}

func TestDeleteLastRatingResetsAggregate(t *testing.T) {
	dishes := newMemTarget("d1")
	agg := newTestAggregator(dishes)
	ctx := context.Background()

	entry, err := agg.UpsertRating(ctx, UpsertRequest{
		AuthorID: "u1", TargetID: "d1", TargetKind: KindDish, Score: 5,
	})
	if err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}

	author := authz.Requester{ID: "u1", Role: authz.RoleUser}
	if err := agg.DeleteRating(ctx, entry.ID, author); err != nil {
		t.Fatalf("DeleteRating() error = %v", err)
	}

	if dishes.average["d1"] != 0 || dishes.total["d1"] != 0 {
		t.Errorf("aggregate after last delete = (%v, %d), want (0, 0)",
			dishes.average["d1"], dishes.total["d1"])
	}
}

func TestUpsertRatingRecomputeFailure(t *testing.T) {
	dishes := newMemTarget("d1")
	dishes.updateErr = errors.New("connection reset")
	agg := newTestAggregator(dishes)
	ctx := context.Background()

	entry, err := agg.UpsertRating(ctx, UpsertRequest{
		AuthorID: "u1", TargetID: "d1", TargetKind: KindDish, Score: 4,
	})
	if err == nil {
		t.Fatal("UpsertRating() error = nil, want recompute failure")
	}
	if entry == nil {
		t.Fatal("UpsertRating() entry = nil; the persisted entry must be returned alongside the error")
	}

	// The entry itself is stored even though the aggregate is stale.
	stored, getErr := agg.entries.GetByID(ctx, entry.ID)
	if getErr != nil || stored == nil {
		t.Errorf("GetByID() after recompute failure = (%v, %v)", stored, getErr)
	}
}

func TestMutationStatsCounting(t *testing.T) {
	dishes := newMemTarget("d1")
	agg := newTestAggregator(dishes)
	ctx := context.Background()

	if _, err := agg.UpsertRating(ctx, UpsertRequest{
		AuthorID: "u1", TargetID: "d1", TargetKind: KindDish, Score: 4,
	}); err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}
	if _, err := agg.UpsertRating(ctx, UpsertRequest{
		AuthorID: "u1", TargetID: "d1", TargetKind: KindDish, Score: 5,
	}); err != nil {
		t.Fatalf("UpsertRating() error = %v", err)
	}

	s := agg.Stats()
	if s.Inserted() != 1 || s.Updated() != 1 {
		t.Errorf("stats = %d inserted, %d updated; want 1 and 1", s.Inserted(), s.Updated())
	}
}
