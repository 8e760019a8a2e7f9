// Package rating provides the rating entry store and the aggregator that
// keeps the denormalized average_rating/total_ratings columns on rateable
// entities synchronized with individual rating entries.
package rating

import (
	"errors"
	"time"
)

// Kind identifies the type of entity a rating entry targets.
type Kind string

// Rateable entity kinds.
const (
	KindDish       Kind = "dish"
	KindRestaurant Kind = "restaurant"
)

// Valid reports whether the kind is a known rateable entity type.
func (k Kind) Valid() bool {
	return k == KindDish || k == KindRestaurant
}

// Score bounds for rating entries.
const (
	MinScore = 1
	MaxScore = 5
)

// DefaultWeight is the weight assigned to newly inserted rating entries.
// Weighted averaging reduces to the arithmetic mean when all entries carry
// the default weight.
const DefaultWeight = 1.0

// Common errors for rating operations.
var (
	// ErrInvalidRating is returned when the score is outside [1, 5] or a
	// required identifier is missing. Nothing is written.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrEntryNotFound is returned when a rating entry does not exist.
	ErrEntryNotFound = errors.New("rating entry not found")

	// ErrTargetNotFound is returned when the rated entity does not exist.
	ErrTargetNotFound = errors.New("rating target not found")

	// ErrForbidden is returned when the requester may not delete the entry.
	ErrForbidden = errors.New("forbidden")
)

// Entry represents one user's rating of one rateable entity.
// At most one entry exists per (AuthorID, TargetID, TargetKind);
// a re-submission by the same author replaces the entry in place.
type Entry struct {
	ID              string  `json:"id"`
	AuthorID        string  `json:"author_id"`
	TargetID        string  `json:"target_id"`
	TargetKind      Kind    `json:"target_kind"`
	Score           int     `json:"score"`
	Weight          float64 `json:"weight"`
	Comment         string  `json:"comment,omitempty"`
	IsVerifiedVisit bool    `json:"is_verified_visit"`

	// Auxiliary counters maintained outside the aggregation core.
	HelpfulCount int `json:"helpful_count"`
	ReportCount  int `json:"report_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Aggregate is the computed average/count pair for one target.
type Aggregate struct {
	AverageRating float64
	TotalRatings  int
}

// ValidateScore checks the submitted score against the 1-5 bounds.
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrInvalidRating
	}
	return nil
}
