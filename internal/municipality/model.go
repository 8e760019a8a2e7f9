// Package municipality provides models and repository for the municipalities
// that scope dishes, restaurants, and ranking queries.
package municipality

import "time"

// Municipality represents a town whose dishes and restaurants are listed
// in the directory. The slug is the URL-safe identifier used by listing
// endpoints.
type Municipality struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Province    string  `json:"province,omitempty"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
