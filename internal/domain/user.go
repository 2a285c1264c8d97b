package domain

import "time"

// User is a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           int64
	Username     string
	Email        *string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time

	FavoriteCount int64
}

// Registration is the sign-up form.
type Registration struct {
	Username        string `validate:"required,min=3,max=80"`
	Email           string `validate:"omitempty,email,max=120"`
	Password        string `validate:"required,min=6,max=72"`
	PasswordConfirm string `validate:"required,eqfield=Password"`
}

// Credentials is the login form.
type Credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// Profile is the signed-in user's overview page.
type Profile struct {
	User          User
	RecentReviews []Review
	FavoriteCount int64
}

// UserDirectory is the admin user listing with role counts.
type UserDirectory struct {
	Users        []User
	AdminCount   int
	RegularCount int
}
