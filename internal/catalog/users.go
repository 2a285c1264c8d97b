package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/access"
	"github.com/Clark-Hu/movie-reviews/internal/auth"
	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/repository"
	"github.com/Clark-Hu/movie-reviews/internal/validation"
)

// ProfileReviewLimit is how many recent reviews the profile shows.
const ProfileReviewLimit = 10

func usernameTaken() error {
	return validation.NewFieldError("username", "unique", "username is already taken")
}

// Register creates a regular account.
func (s *Service) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validation.ValidateStruct(reg); err != nil {
		return domain.User{}, err
	}
	if len(reg.Password) > auth.MaxPasswordBytes {
		return domain.User{}, validation.NewFieldError("password", "max", "password must be at most 72 bytes")
	}

	if _, err := s.repo.Users.GetByUsername(ctx, reg.Username); err == nil {
		return domain.User{}, usernameTaken()
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.repo.Users.Create(ctx, repository.UserCreateParams{
		Username:     reg.Username,
		Email:        optional(reg.Email),
		PasswordHash: hash,
	})
	if err != nil {
		if repository.IsUniqueViolation(err, repository.UsernameConstraint) {
			return domain.User{}, usernameTaken()
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate checks credentials and returns the account.
func (s *Service) Authenticate(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := validation.ValidateStruct(creds); err != nil {
		return domain.User{}, err
	}
	user, err := s.repo.Users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	ok, err := auth.CheckPassword(user.PasswordHash, creds.Password)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// ResolvePrincipal loads the account behind a session. A session whose user
// no longer exists, or whose id now belongs to another username, resolves to
// anonymous.
func (s *Service) ResolvePrincipal(ctx context.Context, userID int64, username string) (access.Principal, error) {
	user, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return access.AnonymousPrincipal(), nil
		}
		return access.AnonymousPrincipal(), fmt.Errorf("resolve principal: %w", err)
	}
	if user.Username != username {
		return access.AnonymousPrincipal(), nil
	}
	return access.ForUser(user), nil
}

// GetUser returns an account visible to the principal: their own or any for admins.
func (s *Service) GetUser(ctx context.Context, p access.Principal, id int64) (domain.User, error) {
	if err := access.CanViewUser(p, id); err != nil {
		return domain.User{}, err
	}
	user, err := s.repo.Users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, orNotFound(err, userNotFound(id))
	}
	return user, nil
}

// Profile returns the principal's account, recent reviews and favorite count.
func (s *Service) Profile(ctx context.Context, p access.Principal) (domain.Profile, error) {
	userID, err := s.memberID(p)
	if err != nil {
		return domain.Profile{}, err
	}
	user, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, orNotFound(err, userNotFound(userID))
	}
	reviews, err := s.repo.Reviews.ListByUser(ctx, userID, ProfileReviewLimit)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("list user reviews: %w", err)
	}
	return domain.Profile{User: user, RecentReviews: reviews, FavoriteCount: user.FavoriteCount}, nil
}

// UserDirectory lists every account with role counts. Admin only.
func (s *Service) UserDirectory(ctx context.Context, p access.Principal) (domain.UserDirectory, error) {
	if err := access.Authorize(p, access.AdminOnly); err != nil {
		return domain.UserDirectory{}, err
	}
	users, err := s.repo.Users.List(ctx)
	if err != nil {
		return domain.UserDirectory{}, fmt.Errorf("list users: %w", err)
	}
	dir := domain.UserDirectory{Users: users}
	for _, u := range users {
		if u.IsAdmin {
			dir.AdminCount++
		} else {
			dir.RegularCount++
		}
	}
	return dir, nil
}

// SetAdmin grants or revokes admin on another account. Admins cannot change
// their own role.
func (s *Service) SetAdmin(ctx context.Context, p access.Principal, targetID int64, isAdmin bool) (domain.User, error) {
	if err := access.CanChangeRole(p, targetID); err != nil {
		return domain.User{}, err
	}
	user, err := s.repo.Users.SetAdmin(ctx, targetID, isAdmin)
	if err != nil {
		return domain.User{}, orNotFound(err, userNotFound(targetID))
	}
	actor, _ := p.UserID()
	s.logger.Info("user role changed",
		zap.Int64("actor_id", actor),
		zap.Int64("user_id", targetID),
		zap.Bool("is_admin", isAdmin),
	)
	return user, nil
}

// EnsureAdmin creates the configured bootstrap administrator, or promotes it
// when the account exists without the role. It is a no-op when none is configured.
func (s *Service) EnsureAdmin(ctx context.Context) error {
	if s.admin == nil || s.admin.Username == "" {
		return nil
	}
	existing, err := s.repo.Users.GetByUsername(ctx, s.admin.Username)
	switch {
	case err == nil:
		if existing.IsAdmin {
			return nil
		}
		if _, err := s.repo.Users.SetAdmin(ctx, existing.ID, true); err != nil {
			return fmt.Errorf("promote bootstrap admin: %w", err)
		}
		s.logger.Warn("bootstrap admin promoted", zap.String("username", existing.Username))
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	hash, err := auth.HashPassword(s.admin.Password)
	if err != nil {
		return err
	}
	user, err := s.repo.Users.Create(ctx, repository.UserCreateParams{
		Username:     s.admin.Username,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		if repository.IsUniqueViolation(err, repository.UsernameConstraint) {
			return nil
		}
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

// Reinitialize drops and recreates the schema, then restores the bootstrap
// administrator. Admin only.
func (s *Service) Reinitialize(ctx context.Context, p access.Principal) error {
	if err := access.Authorize(p, access.AdminOnly); err != nil {
		return err
	}
	actor, _ := p.UserID()
	s.logger.Warn("database reinitialization requested", zap.Int64("actor_id", actor))
	if err := s.db.Reset(ctx); err != nil {
		return fmt.Errorf("reset database: %w", err)
	}
	return s.EnsureAdmin(ctx)
}
