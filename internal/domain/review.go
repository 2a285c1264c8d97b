package domain

import "time"

// MinReviewRating and MaxReviewRating bound a review's score.
const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review is a single user's review of a movie. At most one exists per (user, movie).
type Review struct {
	ID        int64
	Content   string
	Rating    int
	UserID    int64
	MovieID   int64
	CreatedAt time.Time

	// Denormalized for display.
	Username   string
	MovieTitle string
}

// ReviewInput is the payload for posting a review.
type ReviewInput struct {
	Content string `validate:"required,max=5000"`
	Rating  int    `validate:"gte=1,lte=5"`
}

// RatingStats is the raw aggregate of a movie's review scores.
type RatingStats struct {
	Sum   int64
	Count int64
}
