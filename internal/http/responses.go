package httpserver

import (
	"time"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/favorites"
	"github.com/Clark-Hu/movie-reviews/internal/repository"
)

type movieRequest struct {
	Title       string  `json:"title"`
	Year        int     `json:"year"`
	Director    *string `json:"director"`
	Description *string `json:"description"`
	Genre       *string `json:"genre"`
}

func (req movieRequest) input() domain.MovieInput {
	return domain.MovieInput{
		Title:       req.Title,
		Year:        req.Year,
		Director:    req.Director,
		Description: req.Description,
		Genre:       req.Genre,
	}
}

type movieResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Year          int       `json:"year"`
	Director      *string   `json:"director"`
	Description   *string   `json:"description"`
	Genre         *string   `json:"genre"`
	Rating        float64   `json:"rating"`
	CreatedAt     time.Time `json:"created_at"`
	FavoriteCount int64     `json:"favorite_count"`
	ReviewCount   int64     `json:"review_count"`
	IsFavorite    *bool     `json:"is_favorite,omitempty"`
}

type movieListResponse struct {
	Items   []movieResponse `json:"items"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Total   int64           `json:"total"`
	Pages   int             `json:"pages"`
}

type reviewRequest struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

type reviewResponse struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	Rating     int       `json:"rating"`
	UserID     int64     `json:"user_id"`
	MovieID    int64     `json:"movie_id"`
	CreatedAt  time.Time `json:"created_at"`
	Username   string    `json:"username"`
	MovieTitle string    `json:"movie_title"`
}

type favoriteResponse struct {
	Message       string `json:"message,omitempty"`
	IsFavorite    bool   `json:"is_favorite"`
	FavoriteCount int64  `json:"favorite_count"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         *string   `json:"email"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	FavoriteCount int64     `json:"favorite_count"`
}

type userListResponse struct {
	Items        []userResponse `json:"items"`
	AdminCount   int            `json:"admin_count"`
	RegularCount int            `json:"regular_count"`
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		ID:            movie.ID,
		Title:         movie.Title,
		Year:          movie.Year,
		Director:      movie.Director,
		Description:   movie.Description,
		Genre:         movie.Genre,
		Rating:        movie.Rating,
		CreatedAt:     movie.CreatedAt,
		FavoriteCount: movie.FavoriteCount,
		ReviewCount:   movie.ReviewCount,
		IsFavorite:    movie.IsFavorite,
	}
}

func toMovieResponses(movies []domain.Movie) []movieResponse {
	items := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		items = append(items, toMovieResponse(m))
	}
	return items
}

func toMovieListResponse(result repository.MovieListResult) movieListResponse {
	return movieListResponse{
		Items:   toMovieResponses(result.Items),
		Page:    result.Page,
		PerPage: result.PerPage,
		Total:   result.Total,
		Pages:   result.Pages(),
	}
}

func toReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:         review.ID,
		Content:    review.Content,
		Rating:     review.Rating,
		UserID:     review.UserID,
		MovieID:    review.MovieID,
		CreatedAt:  review.CreatedAt,
		Username:   review.Username,
		MovieTitle: review.MovieTitle,
	}
}

func toReviewResponses(reviews []domain.Review) []reviewResponse {
	items := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, toReviewResponse(r))
	}
	return items
}

func toFavoriteResponse(message string, status favorites.Status) favoriteResponse {
	return favoriteResponse{
		Message:       message,
		IsFavorite:    status.IsFavorite,
		FavoriteCount: status.FavoriteCount,
	}
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		IsAdmin:       user.IsAdmin,
		CreatedAt:     user.CreatedAt,
		FavoriteCount: user.FavoriteCount,
	}
}
