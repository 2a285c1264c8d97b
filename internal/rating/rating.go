// Package rating derives a movie's displayed rating from its reviews.
//
// The rating is the arithmetic mean of the review scores rounded to one
// decimal place with round-half-to-even, or 0.0 when there are no reviews.
// Rounding is done on the exact rational sum/count so that decimal ties such
// as 1.25 and 1.75 always resolve the same way (1.2 and 1.8).
package rating

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

// Source reads the aggregate of a movie's review scores.
type Source interface {
	Stats(ctx context.Context, movieID int64) (domain.RatingStats, error)
}

// Sink persists a movie's rating.
type Sink interface {
	SetRating(ctx context.Context, movieID int64, rating float64) error
}

// Average returns sum/count rounded half-to-even to one decimal place.
func Average(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}
	// tenths = round(sum*10 / count) using exact integer division.
	num := sum * 10
	q, rem := num/count, num%count
	if rem < 0 {
		q--
		rem += count
	}
	switch twice := 2 * rem; {
	case twice > count:
		q++
	case twice == count && q%2 != 0:
		q++
	}
	return float64(q) / 10
}

// Recompute reads the movie's review stats from src and writes the derived
// rating to dst. Both must be bound to the transaction that changed the
// reviews so the stored rating commits atomically with them. Errors are
// returned as-is and are expected to abort that transaction.
func Recompute(ctx context.Context, src Source, dst Sink, movieID int64) (float64, error) {
	stats, err := src.Stats(ctx, movieID)
	if err != nil {
		return 0, fmt.Errorf("read review stats for movie %d: %w", movieID, err)
	}
	value := Average(stats.Sum, stats.Count)
	if err := dst.SetRating(ctx, movieID, value); err != nil {
		return 0, fmt.Errorf("store rating for movie %d: %w", movieID, err)
	}
	return value, nil
}
