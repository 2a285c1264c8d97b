// Package access resolves who is making a request and decides what they may do.
package access

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

// Kind enumerates the principal variants.
type Kind int

const (
	Anonymous Kind = iota
	Regular
	Admin
)

func (k Kind) String() string {
	switch k {
	case Anonymous:
		return "anonymous"
	case Regular:
		return "regular"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Principal is the identity making a request. The zero value is anonymous.
type Principal struct {
	kind     Kind
	userID   int64
	username string
}

// AnonymousPrincipal returns the principal of an unauthenticated request.
func AnonymousPrincipal() Principal { return Principal{kind: Anonymous} }

// RegularPrincipal returns a non-admin signed-in principal.
func RegularPrincipal(userID int64, username string) Principal {
	return Principal{kind: Regular, userID: userID, username: username}
}

// AdminPrincipal returns an administrator principal.
func AdminPrincipal(userID int64, username string) Principal {
	return Principal{kind: Admin, userID: userID, username: username}
}

// ForUser derives the principal from a stored user's role flag.
func ForUser(u domain.User) Principal {
	if u.IsAdmin {
		return AdminPrincipal(u.ID, u.Username)
	}
	return RegularPrincipal(u.ID, u.Username)
}

func (p Principal) Kind() Kind { return p.kind }

// UserID returns the signed-in user's id; ok is false for anonymous principals.
func (p Principal) UserID() (id int64, ok bool) {
	switch p.kind {
	case Anonymous:
		return 0, false
	case Regular, Admin:
		return p.userID, true
	default:
		return 0, false
	}
}

// Viewer returns a pointer to the user id, or nil when anonymous.
func (p Principal) Viewer() *int64 {
	id, ok := p.UserID()
	if !ok {
		return nil
	}
	return &id
}

func (p Principal) Username() string { return p.username }

func (p Principal) IsAuthenticated() bool {
	_, ok := p.UserID()
	return ok
}

func (p Principal) IsAdmin() bool { return p.kind == Admin }

type ctxKey struct{}

// WithPrincipal stores p on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the request principal, anonymous if none was stored.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(ctxKey{}).(Principal); ok {
		return p
	}
	return AnonymousPrincipal()
}
