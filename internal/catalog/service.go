// Package catalog implements the movie, review, favorite and account
// operations. Each call authorizes the principal first and runs at most one
// database transaction.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/favorites"
	"github.com/Clark-Hu/movie-reviews/internal/metadata"
	"github.com/Clark-Hu/movie-reviews/internal/repository"
)

// Database is the storage handle the service needs beyond plain repositories.
type Database interface {
	InTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	Reset(ctx context.Context) error
}

// BootstrapAdmin is the administrator account ensured at startup and after a
// reinitialization.
type BootstrapAdmin struct {
	Username string
	Password string
}

// Options configures optional collaborators.
type Options struct {
	Enricher *metadata.Enricher
	Admin    *BootstrapAdmin
	Logger   *zap.Logger
}

// Service is the application core used by the HTTP layer.
type Service struct {
	db        Database
	repo      *repository.Repository
	favorites *favorites.Manager
	enricher  *metadata.Enricher
	admin     *BootstrapAdmin
	logger    *zap.Logger
}

// New wires a Service. db provides transactions and resets; repo runs
// standalone queries on the pool.
func New(db Database, repo *repository.Repository, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("catalog")
	return &Service{
		db:        db,
		repo:      repo,
		favorites: favorites.NewManager(repo.Favorites, logger),
		enricher:  opts.Enricher,
		admin:     opts.Admin,
		logger:    logger,
	}
}

func movieNotFound(id int64) error {
	return fmt.Errorf("movie %d %w", id, domain.ErrNotFound)
}

func reviewNotFound(id int64) error {
	return fmt.Errorf("review %d %w", id, domain.ErrNotFound)
}

func userNotFound(id int64) error {
	return fmt.Errorf("user %d %w", id, domain.ErrNotFound)
}

// orNotFound replaces a repository not-found error with notFound, keeping any
// other error as is.
func orNotFound(err error, notFound error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound
	}
	return err
}
