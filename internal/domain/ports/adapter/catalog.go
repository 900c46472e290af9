package adapter

import (
	"context"

	"flixgo-client/internal/domain/model"
)

// Catalog exposes the read-only backend lookups the core needs.
type Catalog interface {
	ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error)
	ListMovies(ctx context.Context) ([]*model.Movie, error)
	// MediaURL turns a movie's locator into a URL the media resource can open.
	MediaURL(locator string) string
}
