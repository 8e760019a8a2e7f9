package curation

import (
	"context"
	"errors"
	"testing"

	"github.com/kainan-collective/kainan/internal/audit"
	"github.com/kainan-collective/kainan/internal/authz"
	"github.com/kainan-collective/kainan/internal/dish"
	"github.com/kainan-collective/kainan/internal/restaurant"
)

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T) (*Service, dish.Repository, restaurant.Repository, audit.Repository) {
	t.Helper()
	dishes := dish.NewInMemoryRepository()
	restaurants := restaurant.NewInMemoryRepository(nil)
	auditLog := audit.NewInMemoryRepository()
	svc := NewService(dishes, restaurants, auditLog, nil)
	return svc, dishes, restaurants, auditLog
}

func seedDish(t *testing.T, repo dish.Repository, id, municipalityID string) {
	t.Helper()
	err := repo.Insert(context.Background(), &dish.Dish{
		ID:             id,
		Name:           "Dish " + id,
		MunicipalityID: municipalityID,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
}

var admin = authz.Requester{ID: "admin-1", Role: authz.RoleAdmin}

func TestSetDishPanelRankForbidden(t *testing.T) {
	svc, dishes, _, _ := newTestService(t)
	seedDish(t, dishes, "d1", "m1")

	user := authz.Requester{ID: "u1", Role: authz.RoleUser}
	_, err := svc.SetDishPanelRank(context.Background(), user, "d1", intPtr(1))
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("SetDishPanelRank() error = %v, want ErrForbidden", err)
	}
}

func TestSetDishPanelRankInvalidRank(t *testing.T) {
	svc, dishes, _, _ := newTestService(t)
	seedDish(t, dishes, "d1", "m1")

	_, err := svc.SetDishPanelRank(context.Background(), admin, "d1", intPtr(0))
	if !errors.Is(err, ErrInvalidRank) {
		t.Errorf("SetDishPanelRank() error = %v, want ErrInvalidRank", err)
	}
}

func TestSetDishPanelRankEvicts(t *testing.T) {
	svc, dishes, _, _ := newTestService(t)
	ctx := context.Background()
	seedDish(t, dishes, "dishA", "m1")
	seedDish(t, dishes, "dishB", "m1")

	if _, err := svc.SetDishPanelRank(ctx, admin, "dishA", intPtr(1)); err != nil {
		t.Fatalf("SetDishPanelRank(dishA) error = %v", err)
	}

	res, err := svc.SetDishPanelRank(ctx, admin, "dishB", intPtr(1))
	if err != nil {
		t.Fatalf("SetDishPanelRank(dishB) error = %v", err)
	}
	if res.EvictedID != "dishA" {
		t.Errorf("EvictedID = %q, want dishA", res.EvictedID)
	}

	a, err := dishes.GetByID(ctx, "dishA")
	if err != nil {
		t.Fatalf("GetByID(dishA) error = %v", err)
	}
	if a.PanelRank != nil {
		t.Errorf("dishA PanelRank = %d, want nil after eviction", *a.PanelRank)
	}

	b, err := dishes.GetByID(ctx, "dishB")
	if err != nil {
		t.Fatalf("GetByID(dishB) error = %v", err)
	}
	if b.PanelRank == nil || *b.PanelRank != 1 {
		t.Errorf("dishB PanelRank = %v, want 1", b.PanelRank)
	}
}

func TestSetDishPanelRankClears(t *testing.T) {
	svc, dishes, _, _ := newTestService(t)
	ctx := context.Background()
	seedDish(t, dishes, "d1", "m1")

	if _, err := svc.SetDishPanelRank(ctx, admin, "d1", intPtr(2)); err != nil {
		t.Fatalf("SetDishPanelRank() error = %v", err)
	}
	if _, err := svc.SetDishPanelRank(ctx, admin, "d1", nil); err != nil {
		t.Fatalf("SetDishPanelRank(nil) error = %v", err)
	}

	d, err := dishes.GetByID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if d.PanelRank != nil {
		t.Errorf("PanelRank = %d, want nil after clearing", *d.PanelRank)
	}
}

func TestSetDishFeaturedRankTogglesFlag(t *testing.T) {
	svc, dishes, _, _ := newTestService(t)
	ctx := context.Background()
	seedDish(t, dishes, "d1", "m1")

	if _, err := svc.SetDishFeaturedRank(ctx, admin, "d1", intPtr(1)); err != nil {
		t.Fatalf("SetDishFeaturedRank() error = %v", err)
	}
	d, _ := dishes.GetByID(ctx, "d1")
	if !d.Featured {
		t.Error("Featured = false after assigning featured rank, want true")
	}

	if _, err := svc.SetDishFeaturedRank(ctx, admin, "d1", nil); err != nil {
		t.Fatalf("SetDishFeaturedRank(nil) error = %v", err)
	}
	d, _ = dishes.GetByID(ctx, "d1")
	if d.Featured {
		t.Error("Featured = true after clearing featured rank, want false")
	}
}

func TestCurationChangesAreAudited(t *testing.T) {
	svc, dishes, _, auditLog := newTestService(t)
	ctx := context.Background()
	seedDish(t, dishes, "dishA", "m1")
	seedDish(t, dishes, "dishB", "m1")

	if _, err := svc.SetDishPanelRank(ctx, admin, "dishA", intPtr(1)); err != nil {
		t.Fatalf("SetDishPanelRank(dishA) error = %v", err)
	}
	if _, err := svc.SetDishPanelRank(ctx, admin, "dishB", intPtr(1)); err != nil {
		t.Fatalf("SetDishPanelRank(dishB) error = %v", err)
	}

	entries, err := auditLog.QueryByEntity(ctx, "dish", "dishB", 0)
	if err != nil {
		t.Fatalf("QueryByEntity() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("QueryByEntity() returned %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != "set_panel_rank" {
		t.Errorf("Action = %q, want set_panel_rank", e.Action)
	}
	if e.Outcome != "success" {
		t.Errorf("Outcome = %q, want success", e.Outcome)
	}
	if e.ActorID != "admin-1" {
		t.Errorf("ActorID = %q, want admin-1", e.ActorID)
	}
	if e.EvictedID != "dishA" {
		t.Errorf("EvictedID = %q, want dishA", e.EvictedID)
	}
	if e.NewRank == nil || *e.NewRank != 1 {
		t.Errorf("NewRank = %v, want 1", e.NewRank)
	}
}

func TestSetRestaurantFeaturedRankEvicts(t *testing.T) {
	svc, _, restaurants, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"r1", "r2"} {
		err := restaurants.Insert(ctx, &restaurant.Restaurant{
			ID:             id,
			Name:           "Restaurant " + id,
			MunicipalityID: "m1",
		})
		if err != nil {
			t.Fatalf("Insert(%s) error = %v", id, err)
		}
	}

	if _, err := svc.SetRestaurantFeaturedRank(ctx, admin, "r1", intPtr(1)); err != nil {
		t.Fatalf("SetRestaurantFeaturedRank(r1) error = %v", err)
	}
	res, err := svc.SetRestaurantFeaturedRank(ctx, admin, "r2", intPtr(1))
	if err != nil {
		t.Fatalf("SetRestaurantFeaturedRank(r2) error = %v", err)
	}
	if res.EvictedID != "r1" {
		t.Errorf("EvictedID = %q, want r1", res.EvictedID)
	}
}

func TestHistoryRequiresAdmin(t *testing.T) {
	svc, dishes, _, _ := newTestService(t)
	ctx := context.Background()
	seedDish(t, dishes, "d1", "m1")

	owner := authz.Requester{ID: "owner-1", Role: authz.RoleOwner}
	if err := svc.SetDishSignature(ctx, owner, "d1", true); err != nil {
		t.Fatalf("SetDishSignature() error = %v", err)
	}

	if _, err := svc.History(ctx, owner, "dish", "d1", 0); !errors.Is(err, ErrForbidden) {
		t.Errorf("History() as owner error = %v, want ErrForbidden", err)
	}

	entries, err := svc.History(ctx, admin, "dish", "d1", 0)
	if err != nil {
		t.Fatalf("History() as admin error = %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "set_signature" {
		t.Errorf("History() = %+v, want single set_signature entry", entries)
	}
}
