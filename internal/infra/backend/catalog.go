package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/adapter"
)

// DefaultPoster is served when a movie has no artwork.
const DefaultPoster = "/assets/img/covers/cover.jpg"

var _ adapter.Catalog = (*Catalog)(nil)

// Catalog reads plans and movies from the backend.
type Catalog struct {
	api          *Client
	mediaBaseURL string
}

func NewCatalog(api *Client, mediaBaseURL string) *Catalog {
	return &Catalog{api: api, mediaBaseURL: strings.TrimRight(mediaBaseURL, "/")}
}

func (c *Catalog) ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	var plans []*model.SubscriptionPlan
	if err := c.list(ctx, EndpointGetPlans, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (c *Catalog) ListMovies(ctx context.Context) ([]*model.Movie, error) {
	var movies []*model.Movie
	if err := c.list(ctx, EndpointGetMovies, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (c *Catalog) list(ctx context.Context, endpoint string, out any) error {
	env, err := c.api.Call(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if !env.Success {
		return &APIError{Status: http.StatusOK, Message: env.Message}
	}
	if err := env.DecodeData(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// MediaURL resolves a locator: empty gives the default poster, absolute
// http(s) URLs are kept, anything else is a path on the media host.
func (c *Catalog) MediaURL(locator string) string {
	return ResolveMediaURL(c.mediaBaseURL, locator)
}

func ResolveMediaURL(base, locator string) string {
	if locator == "" {
		return DefaultPoster
	}
	if strings.HasPrefix(locator, "http") {
		return locator
	}
	return base + locator
}
