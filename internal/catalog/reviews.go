package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/access"
	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/metrics"
	"github.com/Clark-Hu/movie-reviews/internal/rating"
	"github.com/Clark-Hu/movie-reviews/internal/repository"
	"github.com/Clark-Hu/movie-reviews/internal/validation"
)

// ErrAlreadyReviewed is returned when the user already reviewed the movie.
var ErrAlreadyReviewed = fmt.Errorf("%w: you have already reviewed this movie", domain.ErrConflict)

// ListReviews returns a movie's reviews, newest first.
func (s *Service) ListReviews(ctx context.Context, p access.Principal, movieID int64) ([]domain.Review, error) {
	if err := access.Authorize(p, access.Public); err != nil {
		return nil, err
	}
	if _, err := s.repo.Movies.GetByID(ctx, movieID, nil); err != nil {
		return nil, orNotFound(err, movieNotFound(movieID))
	}
	reviews, err := s.repo.Reviews.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// GetReview returns a single review.
func (s *Service) GetReview(ctx context.Context, p access.Principal, id int64) (domain.Review, error) {
	if err := access.Authorize(p, access.Public); err != nil {
		return domain.Review{}, err
	}
	review, err := s.repo.Reviews.GetByID(ctx, id)
	if err != nil {
		return domain.Review{}, orNotFound(err, reviewNotFound(id))
	}
	return review, nil
}

// AddReview posts the principal's review of movieID and recomputes the movie
// rating in the same transaction.
func (s *Service) AddReview(ctx context.Context, p access.Principal, movieID int64, in domain.ReviewInput) (domain.Review, error) {
	if err := access.Authorize(p, access.Member); err != nil {
		return domain.Review{}, err
	}
	userID, _ := p.UserID()
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.ValidateStruct(in); err != nil {
		return domain.Review{}, err
	}

	var created domain.Review
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		repo := repository.WithTx(tx)
		if _, err := repo.Movies.LockByID(ctx, movieID); err != nil {
			return orNotFound(err, movieNotFound(movieID))
		}

		review, err := repo.Reviews.Create(ctx, repository.ReviewCreateParams{
			MovieID: movieID,
			UserID:  userID,
			Content: in.Content,
			Rating:  in.Rating,
		})
		if err != nil {
			if repository.IsUniqueViolation(err, repository.ReviewUniqueConstraint) {
				return ErrAlreadyReviewed
			}
			return fmt.Errorf("insert review: %w", err)
		}

		if err := s.recompute(ctx, repo, movieID); err != nil {
			return err
		}
		created = review
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}

	metrics.RecordReviewMutation("create")
	s.logger.Info("review created",
		zap.Int64("review_id", created.ID),
		zap.Int64("movie_id", movieID),
		zap.Int64("user_id", userID),
	)
	return created, nil
}

// DeleteReview removes a review when the principal is its author or an admin,
// then recomputes the movie rating in the same transaction.
func (s *Service) DeleteReview(ctx context.Context, p access.Principal, id int64) (domain.Review, error) {
	if err := access.Authorize(p, access.Member); err != nil {
		return domain.Review{}, err
	}
	review, err := s.repo.Reviews.GetByID(ctx, id)
	if err != nil {
		return domain.Review{}, orNotFound(err, reviewNotFound(id))
	}
	if err := access.CanDeleteReview(p, review); err != nil {
		return domain.Review{}, err
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		repo := repository.WithTx(tx)
		if _, err := repo.Movies.LockByID(ctx, review.MovieID); err != nil {
			return orNotFound(err, reviewNotFound(id))
		}
		if err := repo.Reviews.Delete(ctx, id); err != nil {
			return orNotFound(err, reviewNotFound(id))
		}
		return s.recompute(ctx, repo, review.MovieID)
	})
	if err != nil {
		return domain.Review{}, err
	}

	metrics.RecordReviewMutation("delete")
	s.logger.Info("review deleted", zap.Int64("review_id", id), zap.Int64("movie_id", review.MovieID))
	return review, nil
}

func (s *Service) recompute(ctx context.Context, repo *repository.Repository, movieID int64) error {
	value, err := rating.Recompute(ctx, repo.Reviews, repo.Movies, movieID)
	metrics.RecordRatingRecompute(err)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return movieNotFound(movieID)
		}
		return err
	}
	s.logger.Debug("rating recomputed", zap.Int64("movie_id", movieID), zap.Float64("rating", value))
	return nil
}
