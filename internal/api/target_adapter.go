package api

import (
	"context"
	"errors"

	"github.com/kainan-collective/kainan/internal/dish"
	"github.com/kainan-collective/kainan/internal/rating"
	"github.com/kainan-collective/kainan/internal/restaurant"
)

// DishTargetChecker adapts the dish repository to the rating aggregator's
// existence check.
type DishTargetChecker struct {
	repo dish.Repository
}

// NewDishTargetChecker creates a checker over the dish repository.
func NewDishTargetChecker(repo dish.Repository) *DishTargetChecker {
	return &DishTargetChecker{repo: repo}
}

// TargetExists implements rating.TargetChecker.
func (c *DishTargetChecker) TargetExists(ctx context.Context, id string) (bool, error) {
	if _, err := c.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, dish.ErrDishNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RestaurantTargetChecker adapts the restaurant repository to the rating
// aggregator's existence check.
type RestaurantTargetChecker struct {
	repo restaurant.Repository
}

// NewRestaurantTargetChecker creates a checker over the restaurant repository.
func NewRestaurantTargetChecker(repo restaurant.Repository) *RestaurantTargetChecker {
	return &RestaurantTargetChecker{repo: repo}
}

// TargetExists implements rating.TargetChecker.
func (c *RestaurantTargetChecker) TargetExists(ctx context.Context, id string) (bool, error) {
	if _, err := c.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, restaurant.ErrRestaurantNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RatingTargets builds the per-kind target map consumed by the rating
// aggregator and the favorites service.
func RatingTargets(dishes dish.Repository, restaurants restaurant.Repository) map[rating.Kind]rating.Target {
	return map[rating.Kind]rating.Target{
		rating.KindDish: {
			Store:   dishes,
			Checker: NewDishTargetChecker(dishes),
		},
		rating.KindRestaurant: {
			Store:   restaurants,
			Checker: NewRestaurantTargetChecker(restaurants),
		},
	}
}
