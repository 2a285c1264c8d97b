package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

// ReviewUniqueConstraint allows one review per (user, movie).
const ReviewUniqueConstraint = "reviews_user_movie_key"

// ReviewsRepository provides helpers for movie reviews.
type ReviewsRepository struct {
	db DBTX
}

const reviewColumns = `
    r.id,
    r.content,
    r.rating,
    r.user_id,
    r.movie_id,
    r.created_at,
    u.username,
    m.title
`

const reviewFrom = `
    FROM reviews r
    JOIN users u ON u.id = r.user_id
    JOIN movies m ON m.id = r.movie_id
`

// ReviewCreateParams captures the payload required to insert a review.
type ReviewCreateParams struct {
	MovieID int64
	UserID  int64
	Content string
	Rating  int
}

// Create inserts a review. A second review for the same (user, movie) fails
// with domain.ErrConflict; an out-of-range rating with domain.ErrValidation.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	const query = `
        WITH inserted AS (
            INSERT INTO reviews (content, rating, user_id, movie_id)
            VALUES ($1,$2,$3,$4)
            RETURNING id, content, rating, user_id, movie_id, created_at
        )
        SELECT r.id, r.content, r.rating, r.user_id, r.movie_id, r.created_at, u.username, m.title
        FROM inserted r
        JOIN users u ON u.id = r.user_id
        JOIN movies m ON m.id = r.movie_id
    `
	review, err := scanReview(r.db.QueryRow(ctx, query, params.Content, params.Rating, params.UserID, params.MovieID))
	if err != nil {
		return domain.Review{}, translateError(err)
	}
	return review, nil
}

// GetByID retrieves a single review.
func (r *ReviewsRepository) GetByID(ctx context.Context, id int64) (domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.id = $1`, reviewColumns, reviewFrom)
	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Review{}, translateError(err)
	}
	return review, nil
}

// Delete removes a review and reports ErrNotFound when it is already gone.
func (r *ReviewsRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByMovie returns a movie's reviews, newest first.
func (r *ReviewsRepository) ListByMovie(ctx context.Context, movieID int64) ([]domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.movie_id = $1 ORDER BY r.created_at DESC, r.id DESC`, reviewColumns, reviewFrom)
	return r.list(ctx, query, movieID)
}

// ListByUser returns up to limit of a user's reviews, newest first.
func (r *ReviewsRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.user_id = $1 ORDER BY r.created_at DESC, r.id DESC LIMIT $2`, reviewColumns, reviewFrom)
	return r.list(ctx, query, userID, limit)
}

// Stats returns the score sum and review count for a movie.
func (r *ReviewsRepository) Stats(ctx context.Context, movieID int64) (domain.RatingStats, error) {
	const query = `
        SELECT COALESCE(SUM(rating), 0)::int8 AS total,
               COUNT(*)::int8 AS count
        FROM reviews
        WHERE movie_id = $1
    `
	var stats domain.RatingStats
	if err := r.db.QueryRow(ctx, query, movieID).Scan(&stats.Sum, &stats.Count); err != nil {
		return domain.RatingStats{}, fmt.Errorf("aggregate reviews: %w", err)
	}
	return stats, nil
}

// Count returns the number of reviews.
func (r *ReviewsRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&n)
	return n, err
}

func (r *ReviewsRepository) list(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.Content,
		&review.Rating,
		&review.UserID,
		&review.MovieID,
		&review.CreatedAt,
		&review.Username,
		&review.MovieTitle,
	)
	return review, err
}
