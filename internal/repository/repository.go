package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = domain.ErrNotFound

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx so every repository can run
// either standalone or inside a caller-owned transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies    *MoviesRepository
	Reviews   *ReviewsRepository
	Users     *UsersRepository
	Favorites *FavoritesRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithDB(st.Pool())
}

// NewWithDB builds repositories over any DBTX.
func NewWithDB(db DBTX) *Repository {
	return &Repository{
		Movies:    &MoviesRepository{db: db},
		Reviews:   &ReviewsRepository{db: db},
		Users:     &UsersRepository{db: db},
		Favorites: &FavoritesRepository{db: db},
	}
}

// WithTx returns repositories bound to tx.
func WithTx(tx pgx.Tx) *Repository {
	return NewWithDB(tx)
}

// Postgres SQLSTATE codes translated into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// constraintError reports a violated constraint by name only. The driver
// error stays reachable through Unwrap for logging and IsUniqueViolation.
type constraintError struct {
	sentinel   error
	constraint string
	cause      error
}

func (e *constraintError) Error() string {
	return fmt.Sprintf("%s: constraint %s", e.sentinel, e.constraint)
}

func (e *constraintError) Unwrap() []error { return []error{e.sentinel, e.cause} }

// translateError maps driver errors onto domain sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		var sentinel error
		switch pgErr.Code {
		case pgUniqueViolation:
			sentinel = domain.ErrConflict
		case pgForeignKeyViolation:
			sentinel = domain.ErrNotFound
		case pgCheckViolation:
			sentinel = domain.ErrValidation
		default:
			return err
		}
		return &constraintError{sentinel: sentinel, constraint: pgErr.ConstraintName, cause: err}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation on constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
