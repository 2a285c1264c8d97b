package repository

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

// FavoritesRepository stores (user, movie) favorite pairs keyed by the pair itself.
type FavoritesRepository struct {
	db DBTX
}

// Add inserts the pair and reports whether a row was created. An existing pair,
// including one inserted concurrently, yields (false, nil). A missing user or
// movie yields ErrNotFound.
func (r *FavoritesRepository) Add(ctx context.Context, userID, movieID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO favorites (user_id, movie_id)
        VALUES ($1,$2)
        ON CONFLICT (user_id, movie_id) DO NOTHING
    `, userID, movieID)
	if err != nil {
		return false, translateError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// Remove deletes the pair and reports whether a row was deleted.
func (r *FavoritesRepository) Remove(ctx context.Context, userID, movieID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return false, translateError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// IsFavorite reports membership of the pair.
func (r *FavoritesRepository) IsFavorite(ctx context.Context, userID, movieID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND movie_id = $2)
    `, userID, movieID).Scan(&exists)
	return exists, err
}

// CountFor returns how many users favorited the movie.
func (r *FavoritesRepository) CountFor(ctx context.Context, movieID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE movie_id = $1`, movieID).Scan(&n)
	return n, err
}

// CountOf returns how many movies the user favorited.
func (r *FavoritesRepository) CountOf(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// FavoritesOf lists the user's favorite movies, most recently added first.
func (r *FavoritesRepository) FavoritesOf(ctx context.Context, userID int64, limit, offset int) ([]domain.Movie, error) {
	if limit <= 0 {
		limit = DefaultPerPage
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT %s
        FROM favorites fav
        JOIN movies m ON m.id = fav.movie_id
        WHERE fav.user_id = $1
        ORDER BY fav.added_at DESC, m.id DESC
        LIMIT $2 OFFSET $3
    `, movieViewSelect("$1"))

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovieView(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}
