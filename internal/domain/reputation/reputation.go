// Package reputation aggregates review ratings into a per-freelancer score.
package reputation

import (
	"context"
	"fmt"

	"github.com/okian/techmatch/internal/domain/model"
)

// Neutral is the reputation of a freelancer nobody has reviewed.
const Neutral = 0.0

// Store is the review read the aggregator needs.
type Store interface {
	FindNonDeletedReviewsByTarget(ctx context.Context, targetID string) ([]model.Review, error)
}

// Score is the aggregate of a freelancer's live reviews.
type Score struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Aggregator computes reputation on demand. Nothing is cached, so deleting a
// review changes the very next result.
type Aggregator struct {
	store Store
}

// NewAggregator creates an Aggregator over store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// ReputationOf returns the arithmetic mean of ratings across non-deleted
// reviews targeting freelancerID, or Neutral when there are none.
func (a *Aggregator) ReputationOf(ctx context.Context, freelancerID string) (Score, error) {
	reviews, err := a.store.FindNonDeletedReviewsByTarget(ctx, freelancerID)
	if err != nil {
		return Score{}, fmt.Errorf("%w: reviews of %s: %w", ErrDependency, freelancerID, err)
	}
	return Aggregate(reviews), nil
}

// Aggregate folds reviews into a Score. Tombstoned reviews are skipped even
// if a store hands them over.
func Aggregate(reviews []model.Review) Score {
	var (
		sum   int
		count int
	)
	for _, r := range reviews {
		if r.Deleted() {
			continue
		}
		sum += r.Rating
		count++
	}
	if count == 0 {
		return Score{Mean: Neutral}
	}
	return Score{Mean: float64(sum) / float64(count), Count: count}
}
