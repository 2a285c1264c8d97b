package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/access"
	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/repository"
	"github.com/Clark-Hu/movie-reviews/internal/validation"
)

// HomeListSize is how many movies the top-rated and newest lists hold.
const HomeListSize = 6

// MovieQuery filters a movie listing.
type MovieQuery struct {
	Genre   string
	Search  string
	Page    int
	PerPage int
}

// Home is the landing page content.
type Home struct {
	TopRated []domain.Movie
	Newest   []domain.Movie
	// Stats is set for administrators only.
	Stats *domain.CatalogStats
}

// ListMovies returns one page of movies ordered by title.
func (s *Service) ListMovies(ctx context.Context, p access.Principal, q MovieQuery) (repository.MovieListResult, error) {
	if err := access.Authorize(p, access.Public); err != nil {
		return repository.MovieListResult{}, err
	}
	filters := repository.MovieListFilters{
		Genre:    optional(q.Genre),
		Search:   optional(q.Search),
		Page:     q.Page,
		PerPage:  q.PerPage,
		Sort:     repository.SortByTitle,
		ViewerID: p.Viewer(),
	}
	result, err := s.repo.Movies.List(ctx, filters)
	if err != nil {
		return repository.MovieListResult{}, fmt.Errorf("list movies: %w", err)
	}
	return result, nil
}

// Home returns the top-rated and newest movies, plus counters for admins.
func (s *Service) Home(ctx context.Context, p access.Principal) (Home, error) {
	var home Home
	for _, list := range []struct {
		sort repository.MovieSort
		dst  *[]domain.Movie
	}{
		{repository.SortByRating, &home.TopRated},
		{repository.SortByNewest, &home.Newest},
	} {
		result, err := s.repo.Movies.List(ctx, repository.MovieListFilters{
			PerPage:  HomeListSize,
			Sort:     list.sort,
			ViewerID: p.Viewer(),
		})
		if err != nil {
			return Home{}, fmt.Errorf("home listing: %w", err)
		}
		*list.dst = result.Items
	}

	if p.IsAdmin() {
		stats, err := s.Stats(ctx, p)
		if err != nil {
			return Home{}, err
		}
		home.Stats = &stats
	}
	return home, nil
}

// Genres lists the distinct genres for the filter UI.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	genres, err := s.repo.Movies.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return genres, nil
}

// Stats returns catalog counters. Admin only.
func (s *Service) Stats(ctx context.Context, p access.Principal) (domain.CatalogStats, error) {
	if err := access.Authorize(p, access.AdminOnly); err != nil {
		return domain.CatalogStats{}, err
	}
	var stats domain.CatalogStats
	var err error
	if stats.Movies, err = s.repo.Movies.Count(ctx); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("count movies: %w", err)
	}
	if stats.Users, err = s.repo.Users.Count(ctx); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("count users: %w", err)
	}
	if stats.Reviews, err = s.repo.Reviews.Count(ctx); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("count reviews: %w", err)
	}
	return stats, nil
}

// GetMovie returns a movie with its counters; IsFavorite is set for signed-in principals.
func (s *Service) GetMovie(ctx context.Context, p access.Principal, id int64) (domain.Movie, error) {
	if err := access.Authorize(p, access.Public); err != nil {
		return domain.Movie{}, err
	}
	movie, err := s.repo.Movies.GetByID(ctx, id, p.Viewer())
	if err != nil {
		return domain.Movie{}, orNotFound(err, movieNotFound(id))
	}
	return movie, nil
}

// CreateMovie adds a movie with rating 0.0. Admin only.
func (s *Service) CreateMovie(ctx context.Context, p access.Principal, in domain.MovieInput) (domain.Movie, error) {
	if err := access.Authorize(p, access.AdminOnly); err != nil {
		return domain.Movie{}, err
	}
	in = normalizeMovieInput(in)
	if err := validation.ValidateStruct(in); err != nil {
		return domain.Movie{}, err
	}
	in = s.enricher.Enrich(ctx, in)

	created, err := s.repo.Movies.Create(ctx, in)
	if err != nil {
		return domain.Movie{}, fmt.Errorf("create movie: %w", err)
	}
	s.logger.Info("movie created", zap.Int64("movie_id", created.ID), zap.String("title", created.Title))
	return s.GetMovie(ctx, p, created.ID)
}

// UpdateMovie replaces the editable fields of a movie. Admin only.
func (s *Service) UpdateMovie(ctx context.Context, p access.Principal, id int64, in domain.MovieInput) (domain.Movie, error) {
	if err := access.Authorize(p, access.AdminOnly); err != nil {
		return domain.Movie{}, err
	}
	in = normalizeMovieInput(in)
	if err := validation.ValidateStruct(in); err != nil {
		return domain.Movie{}, err
	}
	if _, err := s.repo.Movies.Update(ctx, id, in); err != nil {
		return domain.Movie{}, orNotFound(err, movieNotFound(id))
	}
	s.logger.Info("movie updated", zap.Int64("movie_id", id))
	return s.GetMovie(ctx, p, id)
}

// DeleteMovie removes a movie together with its reviews and favorites. Admin only.
func (s *Service) DeleteMovie(ctx context.Context, p access.Principal, id int64) (domain.Movie, error) {
	if err := access.Authorize(p, access.AdminOnly); err != nil {
		return domain.Movie{}, err
	}
	movie, err := s.repo.Movies.GetByID(ctx, id, nil)
	if err != nil {
		return domain.Movie{}, orNotFound(err, movieNotFound(id))
	}
	if err := s.repo.Movies.Delete(ctx, id); err != nil {
		return domain.Movie{}, orNotFound(err, movieNotFound(id))
	}
	s.logger.Info("movie deleted", zap.Int64("movie_id", id), zap.String("title", movie.Title))
	return movie, nil
}

// normalizeMovieInput trims text and turns blank optional fields into nil.
func normalizeMovieInput(in domain.MovieInput) domain.MovieInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Director = optionalPtr(in.Director)
	in.Genre = optionalPtr(in.Genre)
	in.Description = optionalPtr(in.Description)
	return in
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return optional(*s)
}
