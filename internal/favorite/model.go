// Package favorite tracks which dishes and restaurants users have saved.
// Favorite counts feed the popularity signal used by ranking.
package favorite

import (
	"errors"
	"time"

	"github.com/kainan-collective/kainan/internal/rating"
)

// Errors returned by favorite operations.
var (
	ErrAlreadyFavorited = errors.New("target is already favorited by this user")
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrInvalidKind      = errors.New("target kind must be dish or restaurant")
)

// Favorite represents a user's saved dish or restaurant.
type Favorite struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	TargetID   string      `json:"target_id"`
	TargetKind rating.Kind `json:"target_kind"`
	CreatedAt  time.Time   `json:"created_at"`
}
