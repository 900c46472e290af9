package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/infra/metrics"
)

const (
	plansCacheKey  = "catalog:plans"
	moviesCacheKey = "catalog:movies"
)

var _ adapter.Catalog = (*CatalogCache)(nil)

// CatalogCache caches the plan and movie lists in redis.
type CatalogCache struct {
	inner adapter.Catalog
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

// NewCatalogCacheDecorator wraps inner. Cache failures fall through to the backend.
func NewCatalogCacheDecorator(inner adapter.Catalog, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogCache{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func (d *CatalogCache) ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	var plans []*model.SubscriptionPlan
	if d.lookup(ctx, "plan_list", plansCacheKey, &plans) {
		return plans, nil
	}
	plans, err := d.inner.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	d.store(ctx, plansCacheKey, plans, len(plans))
	return plans, nil
}

func (d *CatalogCache) ListMovies(ctx context.Context) ([]*model.Movie, error) {
	var movies []*model.Movie
	if d.lookup(ctx, "movie_list", moviesCacheKey, &movies) {
		return movies, nil
	}
	movies, err := d.inner.ListMovies(ctx)
	if err != nil {
		return nil, err
	}
	d.store(ctx, moviesCacheKey, movies, len(movies))
	return movies, nil
}

func (d *CatalogCache) MediaURL(locator string) string { return d.inner.MediaURL(locator) }

// Refresh reloads both lists from the backend and overwrites the cache. It
// returns how many entries were cached.
func (d *CatalogCache) Refresh(ctx context.Context) (int, error) {
	var errs []error
	n := 0
	if plans, err := d.inner.ListPlans(ctx); err != nil {
		errs = append(errs, err)
	} else {
		d.store(ctx, plansCacheKey, plans, len(plans))
		n += len(plans)
	}
	if movies, err := d.inner.ListMovies(ctx); err != nil {
		errs = append(errs, err)
	} else {
		d.store(ctx, moviesCacheKey, movies, len(movies))
		n += len(movies)
	}
	return n, errors.Join(errs...)
}

func (d *CatalogCache) lookup(ctx context.Context, name, key string, out any) bool {
	val, err := d.cache.Get(ctx, key)
	if err == nil && json.Unmarshal([]byte(val), out) == nil {
		metrics.IncCacheRequest(name, "hit")
		return true
	}
	if err != nil && !errors.Is(err, Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}
	metrics.IncCacheRequest(name, "miss")
	return false
}

func (d *CatalogCache) store(ctx context.Context, key string, v any, n int) {
	if n == 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}
