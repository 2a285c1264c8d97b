package access

import (
	"fmt"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

// Requirement is the minimum role an action needs.
type Requirement int

const (
	// Public actions: browsing, movie detail, reading reviews.
	Public Requirement = iota
	// Member actions: posting reviews, favorites, own profile.
	Member
	// AdminOnly actions: catalog edits, role management, reinitialization.
	AdminOnly
)

func (r Requirement) String() string {
	switch r {
	case Public:
		return "public"
	case Member:
		return "member"
	case AdminOnly:
		return "admin"
	default:
		return fmt.Sprintf("requirement(%d)", int(r))
	}
}

// Authorize returns nil when p satisfies req, domain.ErrUnauthenticated when
// an anonymous principal needs to sign in, and domain.ErrForbidden otherwise.
func Authorize(p Principal, req Requirement) error {
	switch req {
	case Public:
		return nil
	case Member:
		switch p.kind {
		case Regular, Admin:
			return nil
		case Anonymous:
			return domain.ErrUnauthenticated
		default:
			return domain.ErrForbidden
		}
	case AdminOnly:
		switch p.kind {
		case Admin:
			return nil
		case Regular:
			return domain.ErrForbidden
		case Anonymous:
			return domain.ErrUnauthenticated
		default:
			return domain.ErrForbidden
		}
	default:
		return domain.ErrForbidden
	}
}

// CanDeleteReview allows the review's author and any admin.
func CanDeleteReview(p Principal, review domain.Review) error {
	switch p.kind {
	case Admin:
		return nil
	case Regular:
		if p.userID == review.UserID {
			return nil
		}
		return domain.ErrForbidden
	case Anonymous:
		return domain.ErrUnauthenticated
	default:
		return domain.ErrForbidden
	}
}

// CanViewUser allows a user to see their own account and admins to see any.
func CanViewUser(p Principal, userID int64) error {
	switch p.kind {
	case Admin:
		return nil
	case Regular:
		if p.userID == userID {
			return nil
		}
		return domain.ErrForbidden
	case Anonymous:
		return domain.ErrUnauthenticated
	default:
		return domain.ErrForbidden
	}
}

// CanChangeRole allows an admin to grant or revoke admin on anyone but themselves.
func CanChangeRole(p Principal, targetID int64) error {
	switch p.kind {
	case Admin:
		if p.userID == targetID {
			return fmt.Errorf("%w: cannot change your own role", domain.ErrForbidden)
		}
		return nil
	case Regular:
		return domain.ErrForbidden
	case Anonymous:
		return domain.ErrUnauthenticated
	default:
		return domain.ErrForbidden
	}
}
