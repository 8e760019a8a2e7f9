// Package ranking provides the deterministic ordering used by listing and
// top-N endpoints for dishes and restaurants.
//
// The order is a fixed multi-key comparison; each key breaks ties left by
// the previous one:
//
//  1. featured, descending (featured entities first)
//  2. featured_rank, ascending with null last
//  3. panel_rank, ascending with null last, then is_signature descending
//     (both keys are neutral for restaurants, which never set them)
//  4. average_rating, descending (zero/absent sorts last)
//  5. total_ratings, descending
//  6. popularity, descending
//  7. name, ascending (final deterministic tiebreak)
//
// Curation fields therefore always override computed aggregates: an
// entity a curator featured outranks a higher-rated one that was not.
//
// Basic usage:
//
//	top := ranking.RankTop(dishes, func(d *dish.Dish) ranking.Candidate {
//		return ranking.Candidate{ /* key fields */ }
//	}, 5)
//
// RankTop is stable and pure: two calls with identical input always
// produce identical output order.
package ranking
