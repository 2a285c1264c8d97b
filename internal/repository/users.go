package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

// UsernameConstraint is the unique constraint guarding usernames.
const UsernameConstraint = "users_username_key"

// UsersRepository provides persistence helpers for accounts.
type UsersRepository struct {
	db DBTX
}

const userColumns = `
    u.id,
    u.username,
    u.email,
    u.password_hash,
    u.is_admin,
    u.created_at,
    (SELECT COUNT(*) FROM favorites f WHERE f.user_id = u.id) AS favorite_count
`

// UserCreateParams bundles the fields required to create an account.
type UserCreateParams struct {
	Username     string
	Email        *string
	PasswordHash string
	IsAdmin      bool
}

// Create inserts an account. A taken username yields domain.ErrConflict.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	query := fmt.Sprintf(`
        INSERT INTO users AS u (username, email, password_hash, is_admin)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, userColumns)
	user, err := scanUser(r.db.QueryRow(ctx, query, params.Username, params.Email, params.PasswordHash, params.IsAdmin))
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return user, nil
}

// GetByID fetches an account by id.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.id = $1`, userColumns)
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return user, nil
}

// GetByUsername fetches an account by its unique handle.
func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.username = $1`, userColumns)
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return user, nil
}

// List returns every account, newest first.
func (r *UsersRepository) List(ctx context.Context) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u ORDER BY u.created_at DESC, u.id DESC`, userColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetAdmin updates the role flag and returns the updated account.
func (r *UsersRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) (domain.User, error) {
	query := fmt.Sprintf(`
        UPDATE users AS u SET is_admin = $2
        WHERE u.id = $1
        RETURNING %s
    `, userColumns)
	user, err := scanUser(r.db.QueryRow(ctx, query, id, isAdmin))
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return user, nil
}

// Count returns the number of accounts.
func (r *UsersRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.FavoriteCount,
	)
	return user, err
}
