package catalog

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/movie-reviews/internal/access"
	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/favorites"
	"github.com/Clark-Hu/movie-reviews/internal/metrics"
	"github.com/Clark-Hu/movie-reviews/internal/repository"
)

// ErrAlreadyFavorite is what the JSON API reports for a repeated add.
var ErrAlreadyFavorite = fmt.Errorf("%w: movie is already in favorites", domain.ErrConflict)

// FavoriteStatus returns whether the principal favorited movieID and the movie's count.
func (s *Service) FavoriteStatus(ctx context.Context, p access.Principal, movieID int64) (favorites.Status, error) {
	userID, err := s.memberID(p)
	if err != nil {
		return favorites.Status{}, err
	}
	if err := s.ensureMovie(ctx, movieID); err != nil {
		return favorites.Status{}, err
	}
	return s.favorites.Status(ctx, userID, movieID)
}

// AddFavorite marks movieID as a favorite. added is false when it already was.
func (s *Service) AddFavorite(ctx context.Context, p access.Principal, movieID int64) (status favorites.Status, added bool, err error) {
	userID, err := s.memberID(p)
	if err != nil {
		return favorites.Status{}, false, err
	}
	added, err = s.favorites.Add(ctx, userID, movieID)
	if err != nil {
		return favorites.Status{}, false, orNotFound(err, movieNotFound(movieID))
	}
	metrics.RecordFavoriteChange("add", added)
	status, err = s.favorites.Status(ctx, userID, movieID)
	return status, added, err
}

// RemoveFavorite unmarks movieID. removed is false when it was not a favorite.
func (s *Service) RemoveFavorite(ctx context.Context, p access.Principal, movieID int64) (status favorites.Status, removed bool, err error) {
	userID, err := s.memberID(p)
	if err != nil {
		return favorites.Status{}, false, err
	}
	if err := s.ensureMovie(ctx, movieID); err != nil {
		return favorites.Status{}, false, err
	}
	removed, err = s.favorites.Remove(ctx, userID, movieID)
	if err != nil {
		return favorites.Status{}, false, err
	}
	metrics.RecordFavoriteChange("remove", removed)
	status, err = s.favorites.Status(ctx, userID, movieID)
	return status, removed, err
}

// ToggleFavorite flips the favorite and returns the resulting status.
func (s *Service) ToggleFavorite(ctx context.Context, p access.Principal, movieID int64) (favorites.Status, error) {
	userID, err := s.memberID(p)
	if err != nil {
		return favorites.Status{}, err
	}
	if err := s.ensureMovie(ctx, movieID); err != nil {
		return favorites.Status{}, err
	}
	now, changed, err := s.favorites.Toggle(ctx, userID, movieID)
	if err != nil {
		return favorites.Status{}, orNotFound(err, movieNotFound(movieID))
	}
	op := "remove"
	if now {
		op = "add"
	}
	metrics.RecordFavoriteChange(op, changed)
	return s.favorites.Status(ctx, userID, movieID)
}

// ListFavorites returns one page of the principal's favorite movies.
func (s *Service) ListFavorites(ctx context.Context, p access.Principal, page int) ([]domain.Movie, error) {
	userID, err := s.memberID(p)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	limit := repository.DefaultPerPage
	return s.favorites.FavoritesOf(ctx, userID, limit, (page-1)*limit)
}

func (s *Service) memberID(p access.Principal) (int64, error) {
	if err := access.Authorize(p, access.Member); err != nil {
		return 0, err
	}
	id, _ := p.UserID()
	return id, nil
}

func (s *Service) ensureMovie(ctx context.Context, movieID int64) error {
	ok, err := s.repo.Movies.Exists(ctx, movieID)
	if err != nil {
		return fmt.Errorf("check movie: %w", err)
	}
	if !ok {
		return movieNotFound(movieID)
	}
	return nil
}
