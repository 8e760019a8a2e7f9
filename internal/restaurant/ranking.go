package restaurant

import "github.com/kainan-collective/kainan/internal/ranking"

// rankKey maps a restaurant onto the shared ranking comparator keys.
// Restaurants never set the dish-only panel keys.
func rankKey(r *Restaurant) ranking.Candidate {
	return ranking.Candidate{
		Featured:      r.Featured,
		FeaturedRank:  r.FeaturedRank,
		AverageRating: r.AverageRating,
		TotalRatings:  r.TotalRatings,
		Popularity:    r.Popularity,
		Name:          r.Name,
	}
}

// RankTop orders restaurants by the curation-first comparator and returns
// the first limit entries.
func RankTop(restaurants []*Restaurant, limit int) []*Restaurant {
	return ranking.RankTop(restaurants, rankKey, limit)
}
