// Package restaurant provides models and repository for restaurants,
// including rating aggregates, the featured curation overlay, and coarse
// location handling for public listings.
package restaurant

import "time"

// Restaurant represents an eatery listed under a municipality.
//
// Geohash is derived from Lat/Lng at write time and truncated to a coarse
// precision; public listings expose the geohash rather than exact
// coordinates.
type Restaurant struct {
	ID             string   `json:"id"`
	MunicipalityID string   `json:"municipality_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	CuisineTypes   []string `json:"cuisine_types,omitempty"`
	Address        string   `json:"address,omitempty"`
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	Geohash        string   `json:"geohash,omitempty"`
	PhotoKey       string   `json:"photo_key,omitempty"`

	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
	Popularity    int     `json:"popularity"`

	Featured     bool `json:"featured"`
	FeaturedRank *int `json:"featured_rank,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// clone returns a deep copy of the restaurant.
func (r *Restaurant) clone() *Restaurant {
	copied := *r
	if r.FeaturedRank != nil {
		rank := *r.FeaturedRank
		copied.FeaturedRank = &rank
	}
	if r.CuisineTypes != nil {
		copied.CuisineTypes = append([]string(nil), r.CuisineTypes...)
	}
	return &copied
}
