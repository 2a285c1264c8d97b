// Package favorites manages the (user, movie) favorites relation.
package favorites

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

// Store is the favorites repository. Add and Remove report whether a row
// changed; they never treat an already-present or already-absent pair as an error.
type Store interface {
	Add(ctx context.Context, userID, movieID int64) (bool, error)
	Remove(ctx context.Context, userID, movieID int64) (bool, error)
	IsFavorite(ctx context.Context, userID, movieID int64) (bool, error)
	CountFor(ctx context.Context, movieID int64) (int64, error)
	FavoritesOf(ctx context.Context, userID int64, limit, offset int) ([]domain.Movie, error)
}

// Status is the favorites state of a movie as seen by one user.
type Status struct {
	IsFavorite    bool
	FavoriteCount int64
}

// Manager implements idempotent favorite operations on top of a Store.
type Manager struct {
	store  Store
	logger *zap.Logger
}

// NewManager builds a Manager.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger.Named("favorites")}
}

// Add marks movieID as a favorite of userID and reports whether it was newly added.
func (m *Manager) Add(ctx context.Context, userID, movieID int64) (bool, error) {
	added, err := m.store.Add(ctx, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return added, nil
}

// Remove unmarks the pair and reports whether it was present.
func (m *Manager) Remove(ctx context.Context, userID, movieID int64) (bool, error) {
	removed, err := m.store.Remove(ctx, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	return removed, nil
}

// IsFavorite reports whether userID has favorited movieID.
func (m *Manager) IsFavorite(ctx context.Context, userID, movieID int64) (bool, error) {
	ok, err := m.store.IsFavorite(ctx, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return ok, nil
}

// CountFor returns the number of users that favorited movieID.
func (m *Manager) CountFor(ctx context.Context, movieID int64) (int64, error) {
	n, err := m.store.CountFor(ctx, movieID)
	if err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return n, nil
}

// FavoritesOf lists the user's favorite movies.
func (m *Manager) FavoritesOf(ctx context.Context, userID int64, limit, offset int) ([]domain.Movie, error) {
	movies, err := m.store.FavoritesOf(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return movies, nil
}

// Status returns the user's favorite flag and the movie's favorite count.
func (m *Manager) Status(ctx context.Context, userID, movieID int64) (Status, error) {
	is, err := m.IsFavorite(ctx, userID, movieID)
	if err != nil {
		return Status{}, err
	}
	n, err := m.CountFor(ctx, movieID)
	if err != nil {
		return Status{}, err
	}
	return Status{IsFavorite: is, FavoriteCount: n}, nil
}

// Toggle flips the pair and returns the resulting state along with whether
// this call wrote a row. The check and the write are separate statements, so
// a concurrent toggle can win the race: an insert that finds the pair already
// present or a delete that finds it gone is a no-op, and the state it
// observed is returned with changed false.
func (m *Manager) Toggle(ctx context.Context, userID, movieID int64) (now, changed bool, err error) {
	current, err := m.IsFavorite(ctx, userID, movieID)
	if err != nil {
		return false, false, err
	}

	if current {
		removed, err := m.Remove(ctx, userID, movieID)
		if err != nil {
			return false, false, err
		}
		if !removed {
			m.logger.Debug("favorite already removed", zap.Int64("user_id", userID), zap.Int64("movie_id", movieID))
		}
		return false, removed, nil
	}

	added, err := m.Add(ctx, userID, movieID)
	if err != nil {
		return false, false, err
	}
	if !added {
		m.logger.Debug("favorite already present", zap.Int64("user_id", userID), zap.Int64("movie_id", movieID))
	}
	return true, added, nil
}
