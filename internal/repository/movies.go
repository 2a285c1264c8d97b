package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	db DBTX
}

const movieColumns = `
    m.id,
    m.title,
    m.year,
    m.director,
    m.description,
    m.genre,
    m.rating,
    m.created_at
`

const (
	// DefaultPerPage matches the catalog grid size.
	DefaultPerPage = 12
	maxPerPage     = 100
)

// MovieSort selects the ordering of a movie listing.
type MovieSort int

const (
	SortByTitle MovieSort = iota
	SortByRating
	SortByNewest
)

func (s MovieSort) orderBy() string {
	switch s {
	case SortByRating:
		return "m.rating DESC, m.id DESC"
	case SortByNewest:
		return "m.created_at DESC, m.id DESC"
	default:
		return "m.title ASC, m.id ASC"
	}
}

// MovieListFilters encapsulates search and pagination options.
type MovieListFilters struct {
	Genre   *string
	Search  *string
	Page    int
	PerPage int
	Sort    MovieSort
	// ViewerID, when set, fills Movie.IsFavorite for that user.
	ViewerID *int64
}

// MovieListResult returns the paginated payload.
type MovieListResult struct {
	Items   []domain.Movie
	Page    int
	PerPage int
	Total   int64
}

// Pages reports how many pages the listing spans.
func (r MovieListResult) Pages() int {
	if r.PerPage <= 0 || r.Total == 0 {
		return 0
	}
	return int((r.Total + int64(r.PerPage) - 1) / int64(r.PerPage))
}

// movieViewSelect returns the column list with per-movie counters. viewerParam
// is the placeholder holding the viewer id (NULL for anonymous).
func movieViewSelect(viewerParam string) string {
	return movieColumns + fmt.Sprintf(`,
    (SELECT COUNT(*) FROM favorites f WHERE f.movie_id = m.id) AS favorite_count,
    (SELECT COUNT(*) FROM reviews r WHERE r.movie_id = m.id) AS review_count,
    CASE WHEN %[1]s::bigint IS NULL THEN NULL
         ELSE EXISTS (SELECT 1 FROM favorites f WHERE f.movie_id = m.id AND f.user_id = %[1]s::bigint)
    END AS is_favorite
`, viewerParam)
}

// Create inserts a new movie row and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, in domain.MovieInput) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies AS m (title, year, director, description, genre)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING %s
    `, movieColumns)

	row := r.db.QueryRow(ctx, query, in.Title, in.Year, in.Director, in.Description, in.Genre)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, translateError(err)
	}
	return movie, nil
}

// GetByID fetches a movie with its counters. viewerID may be nil.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64, viewerID *int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies m WHERE m.id = $1`, movieViewSelect("$2"))
	row := r.db.QueryRow(ctx, query, id, viewerID)
	movie, err := scanMovieView(row)
	if err != nil {
		return domain.Movie{}, translateError(err)
	}
	return movie, nil
}

// Exists reports whether a movie with id exists.
func (r *MoviesRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM movies WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// LockByID fetches the bare movie row and holds a row lock until the
// surrounding transaction ends. Review writers use it to serialize per movie.
func (r *MoviesRepository) LockByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies m WHERE m.id = $1 FOR UPDATE`, movieColumns)
	movie, err := scanMovie(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Movie{}, translateError(err)
	}
	return movie, nil
}

// Update replaces the editable fields of a movie.
func (r *MoviesRepository) Update(ctx context.Context, id int64, in domain.MovieInput) (domain.Movie, error) {
	query := fmt.Sprintf(`
        UPDATE movies AS m
        SET title = $2,
            year = $3,
            director = $4,
            description = $5,
            genre = $6
        WHERE m.id = $1
        RETURNING %s
    `, movieColumns)

	row := r.db.QueryRow(ctx, query, id, in.Title, in.Year, in.Director, in.Description, in.Genre)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, translateError(err)
	}
	return movie, nil
}

// SetRating stores a recomputed rating.
func (r *MoviesRepository) SetRating(ctx context.Context, id int64, rating float64) error {
	tag, err := r.db.Exec(ctx, `UPDATE movies SET rating = $2 WHERE id = $1`, id, rating)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a movie; reviews and favorites go with it via ON DELETE CASCADE.
func (r *MoviesRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns movies that match the provided filters.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) (MovieListResult, error) {
	if filters.PerPage <= 0 {
		filters.PerPage = DefaultPerPage
	} else if filters.PerPage > maxPerPage {
		filters.PerPage = maxPerPage
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}

	args := make([]interface{}, 0, 4)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	where := make([]string, 0, 2)
	if filters.Genre != nil && strings.TrimSpace(*filters.Genre) != "" {
		where = append(where, fmt.Sprintf("m.genre ILIKE %s", arg(containsPattern(*filters.Genre))))
	}
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		where = append(where, fmt.Sprintf("m.title ILIKE %s", arg(containsPattern(*filters.Search))))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM movies m"+whereClause, args...).Scan(&total); err != nil {
		return MovieListResult{}, fmt.Errorf("count movies: %w", err)
	}

	viewerParam := arg(filters.ViewerID)

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(movieViewSelect(viewerParam))
	queryBuilder.WriteString(" FROM movies m")
	queryBuilder.WriteString(whereClause)
	queryBuilder.WriteString(" ORDER BY ")
	queryBuilder.WriteString(filters.Sort.orderBy())
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", filters.PerPage, (filters.Page-1)*filters.PerPage))

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return MovieListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovieView(rows)
		if err != nil {
			return MovieListResult{}, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return MovieListResult{}, err
	}

	return MovieListResult{Items: items, Page: filters.Page, PerPage: filters.PerPage, Total: total}, nil
}

// Genres lists the distinct non-empty genres, alphabetically.
func (r *MoviesRepository) Genres(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
        SELECT DISTINCT genre FROM movies
        WHERE genre IS NOT NULL AND genre <> ''
        ORDER BY genre
    `)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Count returns the number of movies.
func (r *MoviesRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	return n, err
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Year,
		&movie.Director,
		&movie.Description,
		&movie.Genre,
		&movie.Rating,
		&movie.CreatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

func scanMovieView(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Year,
		&movie.Director,
		&movie.Description,
		&movie.Genre,
		&movie.Rating,
		&movie.CreatedAt,
		&movie.FavoriteCount,
		&movie.ReviewCount,
		&movie.IsFavorite,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

// containsPattern builds an ILIKE substring pattern with wildcards escaped.
func containsPattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(term)) + "%"
}
