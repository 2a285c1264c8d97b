package domain

import "time"

// Movie represents the canonical movie entity in the database/service.
type Movie struct {
	ID          int64
	Title       string
	Year        int
	Director    *string
	Description *string
	Genre       *string
	Rating      float64
	CreatedAt   time.Time

	// Derived per query; not stored on the movies row.
	FavoriteCount int64
	ReviewCount   int64
	// IsFavorite is set only when the query was made on behalf of a known user.
	IsFavorite *bool
}

// Length limits of the optional movie fields.
const (
	MaxDirectorLength = 100
	MaxGenreLength    = 100
)

// MovieInput carries the editable movie fields for create and update.
type MovieInput struct {
	Title       string  `validate:"required,max=200"`
	Year        int     `validate:"required,gte=1900,lte=2100"`
	Director    *string `validate:"omitempty,max=100"`
	Description *string
	Genre       *string `validate:"omitempty,max=100"`
}

// CatalogStats are the site-wide counters shown to administrators.
type CatalogStats struct {
	Movies  int64
	Users   int64
	Reviews int64
}
