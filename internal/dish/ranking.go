package dish

import "github.com/kainan-collective/kainan/internal/ranking"

// rankKey maps a dish onto the shared ranking comparator keys.
func rankKey(d *Dish) ranking.Candidate {
	return ranking.Candidate{
		Featured:      d.Featured,
		FeaturedRank:  d.FeaturedRank,
		PanelRank:     d.PanelRank,
		IsSignature:   d.IsSignature,
		AverageRating: d.AverageRating,
		TotalRatings:  d.TotalRatings,
		Popularity:    d.Popularity,
		Name:          d.Name,
	}
}

// RankTop orders dishes by the curation-first comparator and returns the
// first limit entries.
func RankTop(dishes []*Dish, limit int) []*Dish {
	return ranking.RankTop(dishes, rankKey, limit)
}
