package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

var (
	anon  = AnonymousPrincipal()
	alice = RegularPrincipal(1, "alice")
	bob   = RegularPrincipal(2, "bob")
	root  = AdminPrincipal(3, "root")
)

func TestAuthorizeMatrix(t *testing.T) {
	tests := []struct {
		name string
		p    Principal
		req  Requirement
		want error
	}{
		{"anonymous public", anon, Public, nil},
		{"anonymous member", anon, Member, domain.ErrUnauthenticated},
		{"anonymous admin", anon, AdminOnly, domain.ErrUnauthenticated},
		{"regular public", alice, Public, nil},
		{"regular member", alice, Member, nil},
		{"regular admin", alice, AdminOnly, domain.ErrForbidden},
		{"admin public", root, Public, nil},
		{"admin member", root, Member, nil},
		{"admin admin", root, AdminOnly, nil},
		{"unknown requirement", root, Requirement(42), domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.p, tt.req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCanDeleteReview(t *testing.T) {
	review := domain.Review{ID: 7, UserID: alice.userID}

	assert.NoError(t, CanDeleteReview(alice, review))
	assert.NoError(t, CanDeleteReview(root, review))
	assert.ErrorIs(t, CanDeleteReview(bob, review), domain.ErrForbidden)
	assert.ErrorIs(t, CanDeleteReview(anon, review), domain.ErrUnauthenticated)
}

func TestCanViewUser(t *testing.T) {
	assert.NoError(t, CanViewUser(alice, 1))
	assert.NoError(t, CanViewUser(root, 1))
	assert.ErrorIs(t, CanViewUser(bob, 1), domain.ErrForbidden)
	assert.ErrorIs(t, CanViewUser(anon, 1), domain.ErrUnauthenticated)
}

func TestCanChangeRole(t *testing.T) {
	assert.NoError(t, CanChangeRole(root, alice.userID))
	assert.ErrorIs(t, CanChangeRole(root, root.userID), domain.ErrForbidden)
	assert.ErrorIs(t, CanChangeRole(alice, bob.userID), domain.ErrForbidden)
	assert.ErrorIs(t, CanChangeRole(alice, alice.userID), domain.ErrForbidden)
	assert.ErrorIs(t, CanChangeRole(anon, 1), domain.ErrUnauthenticated)
}

func TestPrincipalAccessors(t *testing.T) {
	id, ok := anon.UserID()
	assert.False(t, ok)
	assert.Zero(t, id)
	assert.Nil(t, anon.Viewer())
	assert.False(t, anon.IsAuthenticated())

	id, ok = root.UserID()
	require.True(t, ok)
	assert.EqualValues(t, 3, id)
	require.NotNil(t, root.Viewer())
	assert.EqualValues(t, 3, *root.Viewer())
	assert.True(t, root.IsAdmin())
	assert.False(t, alice.IsAdmin())
	assert.Equal(t, "admin", root.Kind().String())

	assert.Equal(t, Admin, ForUser(domain.User{ID: 9, IsAdmin: true}).Kind())
	assert.Equal(t, Regular, ForUser(domain.User{ID: 9}).Kind())
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Anonymous, FromContext(ctx).Kind())

	ctx = WithPrincipal(ctx, bob)
	got := FromContext(ctx)
	assert.Equal(t, bob, got)
	assert.Equal(t, "bob", got.Username())
}
