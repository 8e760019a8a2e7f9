// Package dish provides models and repository for municipality dishes,
// including the denormalized rating aggregates and curation overlay fields.
package dish

import "time"

// Dish represents a local dish listed under a municipality.
//
// AverageRating and TotalRatings are denormalized aggregates maintained by
// the rating aggregator; they are never written by handlers directly.
// Featured, FeaturedRank, IsSignature, and PanelRank form the curation
// overlay assigned by privileged users and take precedence over computed
// ranking order.
type Dish struct {
	ID             string   `json:"id"`
	MunicipalityID string   `json:"municipality_id"`
	RestaurantID   *string  `json:"restaurant_id,omitempty"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	FlavorProfile  []string `json:"flavor_profile,omitempty"`
	Ingredients    []string `json:"ingredients,omitempty"`
	PhotoKey       string   `json:"photo_key,omitempty"`

	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
	Popularity    int     `json:"popularity"`

	Featured     bool `json:"featured"`
	FeaturedRank *int `json:"featured_rank,omitempty"`
	IsSignature  bool `json:"is_signature"`
	PanelRank    *int `json:"panel_rank,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// clone returns a deep copy of the dish, including rank pointers and slices.
func (d *Dish) clone() *Dish {
	copied := *d
	if d.FeaturedRank != nil {
		rank := *d.FeaturedRank
		copied.FeaturedRank = &rank
	}
	if d.PanelRank != nil {
		rank := *d.PanelRank
		copied.PanelRank = &rank
	}
	if d.RestaurantID != nil {
		id := *d.RestaurantID
		copied.RestaurantID = &id
	}
	if d.FlavorProfile != nil {
		copied.FlavorProfile = append([]string(nil), d.FlavorProfile...)
	}
	if d.Ingredients != nil {
		copied.Ingredients = append([]string(nil), d.Ingredients...)
	}
	return &copied
}
