package ranking

import (
	"reflect"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestLess(t *testing.T) {
	tests := []struct {
		name string
		a, b Candidate
		want bool
	}{
		{
			name: "featured beats higher rating",
			a:    Candidate{Featured: true, AverageRating: 4.0},
			b:    Candidate{AverageRating: 4.9},
			want: true,
		},
		{
			name: "lower featured rank wins",
			a:    Candidate{Featured: true, FeaturedRank: intPtr(1)},
			b:    Candidate{Featured: true, FeaturedRank: intPtr(2)},
			want: true,
		},
		{
			name: "featured rank null sorts last",
			a:    Candidate{Featured: true, FeaturedRank: intPtr(3)},
			b:    Candidate{Featured: true},
			want: true,
		},
		{
			name: "lower panel rank wins",
			a:    Candidate{PanelRank: intPtr(1), AverageRating: 3.0},
			b:    Candidate{PanelRank: intPtr(2), AverageRating: 5.0},
			want: true,
		},
		{
			name: "signature breaks panel tie",
			a:    Candidate{PanelRank: intPtr(1), IsSignature: true},
			b:    Candidate{PanelRank: intPtr(1)},
			want: true,
		},
		{
			name: "higher average rating wins",
			a:    Candidate{AverageRating: 4.5},
			b:    Candidate{AverageRating: 4.4},
			want: true,
		},
		{
			name: "more ratings break average tie",
			a:    Candidate{AverageRating: 4.5, TotalRatings: 20},
			b:    Candidate{AverageRating: 4.5, TotalRatings: 10},
			want: true,
		},
		{
			name: "popularity breaks ratings tie",
			a:    Candidate{AverageRating: 4.5, TotalRatings: 10, Popularity: 7},
			b:    Candidate{AverageRating: 4.5, TotalRatings: 10, Popularity: 3},
			want: true,
		},
		{
			name: "name breaks everything else",
			a:    Candidate{Name: "Adobo"},
			b:    Candidate{Name: "Sinigang"},
			want: true,
		},
		{
			name: "identical keys are not less",
			a:    Candidate{Name: "Adobo", AverageRating: 4.0},
			b:    Candidate{Name: "Adobo", AverageRating: 4.0},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Less(tt.a, tt.b); got != tt.want {
				t.Errorf("Less() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankTop(t *testing.T) {
	type item struct {
		name string
		key  Candidate
	}
	keyOf := func(i item) Candidate { return i.key }

	items := []item{
		{"highlyRated", Candidate{AverageRating: 4.9, TotalRatings: 50, Name: "highlyRated"}},
		{"featured", Candidate{Featured: true, FeaturedRank: intPtr(1), AverageRating: 3.2, Name: "featured"}},
		{"panelPick", Candidate{PanelRank: intPtr(1), AverageRating: 4.0, Name: "panelPick"}},
		{"ordinary", Candidate{AverageRating: 3.5, TotalRatings: 4, Name: "ordinary"}},
	}

	got := RankTop(items, keyOf, 3)
	want := []string{"featured", "panelPick", "highlyRated"}
	names := make([]string, len(got))
	for i, it := range got {
		names[i] = it.name
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("RankTop() order = %v, want %v", names, want)
	}
}

func TestRankTopDeterministic(t *testing.T) {
	type item struct {
		id  string
		key Candidate
	}
	keyOf := func(i item) Candidate { return i.key }

	// Entirely tied keys must preserve input order on every call.
	items := []item{
		{id: "a", key: Candidate{Name: "Same"}},
		{id: "b", key: Candidate{Name: "Same"}},
		{id: "c", key: Candidate{Name: "Same"}},
	}

	first := RankTop(items, keyOf, 0)
	for i := 0; i < 10; i++ {
		again := RankTop(items, keyOf, 0)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("RankTop() not deterministic: %v vs %v", first, again)
		}
	}
	if first[0].id != "a" || first[1].id != "b" || first[2].id != "c" {
		t.Errorf("RankTop() changed relative order of tied items: %v", first)
	}
}

func TestRankTopLimit(t *testing.T) {
	type item struct{ key Candidate }
	keyOf := func(i item) Candidate { return i.key }

	items := make([]item, 10)
	for i := range items {
		items[i] = item{key: Candidate{TotalRatings: i}}
	}

	if got := RankTop(items, keyOf, 3); len(got) != 3 {
		t.Errorf("RankTop(limit=3) returned %d items", len(got))
	}
	if got := RankTop(items, keyOf, 100); len(got) != 10 {
		t.Errorf("RankTop(limit=100) returned %d items", len(got))
	}
	// Zero falls back to the default list limit, capped by input length.
	if got := RankTop(items, keyOf, 0); len(got) != 10 {
		t.Errorf("RankTop(limit=0) returned %d items", len(got))
	}
}

func TestClampWidgetLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultWidgetLimit},
		{-1, DefaultWidgetLimit},
		{1, MinWidgetLimit},
		{3, 3},
		{4, 4},
		{5, 5},
		{9, DefaultWidgetLimit},
	}
	for _, tt := range tests {
		if got := ClampWidgetLimit(tt.in); got != tt.want {
			t.Errorf("ClampWidgetLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
