package adapter

import "context"

// RateLimiter bounds how often an action may run for a key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
