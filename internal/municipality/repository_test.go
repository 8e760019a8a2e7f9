package municipality

import (
	"context"
	"errors"
	"testing"
)

func TestInsertDuplicateSlug(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.Insert(ctx, &Municipality{Name: "Pampanga City", Slug: "pampanga-city"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	// Slug comparison is case-insensitive.
	err := repo.Insert(ctx, &Municipality{Name: "Other", Slug: "Pampanga-City"})
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("Insert() duplicate slug error = %v, want ErrDuplicateSlug", err)
	}
}

func TestGetBySlug(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	m := &Municipality{Name: "Vigan", Slug: "vigan", Province: "Ilocos Sur"}
	if err := repo.Insert(ctx, m); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := repo.GetBySlug(ctx, "vigan")
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if got.Name != "Vigan" || got.Province != "Ilocos Sur" {
		t.Errorf("GetBySlug() = %+v", got)
	}

	if _, err := repo.GetBySlug(ctx, "nowhere"); !errors.Is(err, ErrMunicipalityNotFound) {
		t.Errorf("GetBySlug(nowhere) error = %v, want ErrMunicipalityNotFound", err)
	}
}

func TestListOrderedByName(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for _, m := range []*Municipality{
		{Name: "Zamboanga", Slug: "zamboanga"},
		{Name: "Baguio", Slug: "baguio"},
		{Name: "Iloilo", Slug: "iloilo"},
	} {
		if err := repo.Insert(ctx, m); err != nil {
			t.Fatalf("Insert(%s) error = %v", m.Slug, err)
		}
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"Baguio", "Iloilo", "Zamboanga"}
	if len(got) != len(want) {
		t.Fatalf("List() returned %d municipalities, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("List()[%d].Name = %q, want %q", i, got[i].Name, name)
		}
	}
}
