package metadata

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

// Enricher fills blank optional movie fields from a Client. Lookups are best
// effort: a failure leaves the input as the administrator typed it.
type Enricher struct {
	client Client
	logger *zap.Logger
}

// NewEnricher returns an Enricher; a nil client makes Enrich a no-op.
func NewEnricher(client Client, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{client: client, logger: logger.Named("metadata")}
}

// Enrich returns in with any nil Director, Genre or Description filled.
func (e *Enricher) Enrich(ctx context.Context, in domain.MovieInput) domain.MovieInput {
	if e == nil || e.client == nil {
		return in
	}
	if in.Director != nil && in.Genre != nil && in.Description != nil {
		return in
	}

	result, err := e.client.Lookup(ctx, in.Title, in.Year)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			e.logger.Warn("metadata lookup failed", zap.String("title", in.Title), zap.Error(err))
		}
		return in
	}

	if in.Director == nil {
		in.Director = result.Director
	}
	if in.Genre == nil {
		in.Genre = result.Genre
	}
	if in.Description == nil {
		in.Description = result.Description
	}
	return in
}
