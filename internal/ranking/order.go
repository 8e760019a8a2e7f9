package ranking

import "sort"

// Listing limits applied by the HTTP layer.
const (
	// DefaultListLimit is the limit for general listing endpoints.
	DefaultListLimit = 200
	// DefaultWidgetLimit is the limit for "top N" display widgets.
	DefaultWidgetLimit = 5
	// MinWidgetLimit is the smallest limit a widget may request.
	MinWidgetLimit = 3
)

// Candidate holds the comparison keys for one rateable entity.
// Restaurants leave PanelRank nil and IsSignature false, which makes the
// dish-only key a tie for every pair.
type Candidate struct {
	Featured      bool
	FeaturedRank  *int
	PanelRank     *int
	IsSignature   bool
	AverageRating float64
	TotalRatings  int
	Popularity    int
	Name          string
}

// rankLess compares two nullable ascending ranks with null sorted last.
// Returns -1, 0, or 1.
func rankLess(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

// Less reports whether candidate a sorts before candidate b under the
// fixed multi-key order.
func Less(a, b Candidate) bool {
	// featured descending
	if a.Featured != b.Featured {
		return a.Featured
	}

	// featured_rank ascending, null last
	if c := rankLess(a.FeaturedRank, b.FeaturedRank); c != 0 {
		return c < 0
	}

	// panel_rank ascending, null last; then is_signature descending
	if c := rankLess(a.PanelRank, b.PanelRank); c != 0 {
		return c < 0
	}
	if a.IsSignature != b.IsSignature {
		return a.IsSignature
	}

	// average_rating descending; zero/absent is already the lowest value
	// since stored scores are at least 1
	if a.AverageRating != b.AverageRating {
		return a.AverageRating > b.AverageRating
	}

	// total_ratings descending
	if a.TotalRatings != b.TotalRatings {
		return a.TotalRatings > b.TotalRatings
	}

	// popularity descending
	if a.Popularity != b.Popularity {
		return a.Popularity > b.Popularity
	}

	// name ascending
	return a.Name < b.Name
}

// RankTop orders items by the fixed comparator and returns the first
// limit entries. A limit of zero or less falls back to DefaultListLimit;
// a limit beyond the input length returns everything.
//
// The input slice is not modified. The sort is stable, so the result is
// deterministic for identical inputs.
func RankTop[T any](items []T, keyOf func(T) Candidate, limit int) []T {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	ordered := make([]T, len(items))
	copy(ordered, items)

	keys := make([]Candidate, len(items))
	for i, item := range ordered {
		keys[i] = keyOf(item)
	}

	indices := make([]int, len(ordered))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return Less(keys[indices[i]], keys[indices[j]])
	})

	if limit > len(ordered) {
		limit = len(ordered)
	}
	result := make([]T, 0, limit)
	for _, idx := range indices[:limit] {
		result = append(result, ordered[idx])
	}
	return result
}

// ClampWidgetLimit bounds a requested widget limit to [MinWidgetLimit,
// DefaultWidgetLimit], defaulting when unset.
func ClampWidgetLimit(limit int) int {
	if limit <= 0 {
		return DefaultWidgetLimit
	}
	if limit < MinWidgetLimit {
		return MinWidgetLimit
	}
	if limit > DefaultWidgetLimit {
		return DefaultWidgetLimit
	}
	return limit
}
