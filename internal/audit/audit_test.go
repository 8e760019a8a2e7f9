package audit

import (
	"context"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestRecordValidation(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	tests := []struct {
		name    string
		change  Change
		wantErr error
	}{
		{
			name:    "missing actor",
			change:  Change{EntityType: "dish", EntityID: "d1", Action: "set_panel_rank"},
			wantErr: ErrMissingActor,
		},
		{
			name:    "invalid entity type",
			change:  Change{ActorID: "u1", EntityType: "album", EntityID: "a1", Action: "set_panel_rank"},
			wantErr: ErrInvalidEntityType,
		},
		{
			name:    "invalid action",
			change:  Change{ActorID: "u1", EntityType: "dish", EntityID: "d1", Action: "promote"},
			wantErr: ErrInvalidAction,
		},
		{
			name:   "valid change",
			change: Change{ActorID: "u1", EntityType: "dish", EntityID: "d1", Action: "set_panel_rank", Outcome: "success"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Record(ctx, tt.change)
			if err != tt.wantErr {
				t.Errorf("Record() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashChain(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, err := repo.Record(ctx, Change{
		ActorID:    "admin-1",
		EntityType: "dish",
		EntityID:   "d1",
		Action:     "set_panel_rank",
		Outcome:    "success",
		NewRank:    intPtr(1),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if first.PreviousHash != "" {
		t.Errorf("first entry PreviousHash = %q, want empty", first.PreviousHash)
	}

	second, err := repo.Record(ctx, Change{
		ActorID:    "admin-1",
		EntityType: "dish",
		EntityID:   "d2",
		Action:     "set_panel_rank",
		Outcome:    "success",
		OldRank:    intPtr(1),
		NewRank:    intPtr(2),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if second.PreviousHash == "" {
		t.Error("second entry PreviousHash is empty, want hash of first entry")
	}
	if want := chainHash("", first); second.PreviousHash != want {
		t.Errorf("second entry PreviousHash = %q, want %q", second.PreviousHash, want)
	}
}

func TestQueryByEntity(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Record(ctx, Change{
			ActorID:    "admin-1",
			EntityType: "dish",
			EntityID:   "d1",
			Action:     "set_panel_rank",
			Outcome:    "success",
			NewRank:    intPtr(i + 1),
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if _, err := repo.Record(ctx, Change{
		ActorID:    "admin-1",
		EntityType: "restaurant",
		EntityID:   "r1",
		Action:     "set_featured_rank",
		Outcome:    "success",
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := repo.QueryByEntity(ctx, "dish", "d1", 0)
	if err != nil {
		t.Fatalf("QueryByEntity() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("QueryByEntity() returned %d entries, want 3", len(entries))
	}
	// Newest first
	if *entries[0].NewRank != 3 || *entries[2].NewRank != 1 {
		t.Errorf("entries not in newest-first order: first NewRank=%d, last NewRank=%d",
			*entries[0].NewRank, *entries[2].NewRank)
	}

	limited, err := repo.QueryByEntity(ctx, "dish", "d1", 2)
	if err != nil {
		t.Fatalf("QueryByEntity() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("QueryByEntity() with limit 2 returned %d entries", len(limited))
	}
}

func TestQueryByActor(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Record(ctx, Change{
		ActorID: "admin-1", EntityType: "dish", EntityID: "d1",
		Action: "set_signature", Outcome: "success",
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := repo.Record(ctx, Change{
		ActorID: "admin-2", EntityType: "dish", EntityID: "d2",
		Action: "set_signature", Outcome: "success",
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := repo.QueryByActor(ctx, "admin-1", 0)
	if err != nil {
		t.Fatalf("QueryByActor() error = %v", err)
	}
	if len(entries) != 1 || entries[0].EntityID != "d1" {
		t.Errorf("QueryByActor() = %+v, want single entry for d1", entries)
	}
}
