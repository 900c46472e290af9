package store

import (
	"context"
	"fmt"
	"io"

	"flixgo-client/internal/config"
	"flixgo-client/internal/domain/ports/repository"
	red "flixgo-client/internal/infra/redis"
	"flixgo-client/internal/infra/sqlite"
)

// Open builds the configured store. The returned closer releases the
// underlying connection and is never nil.
func Open(ctx context.Context, cfg *config.Config) (repository.KeyValueStore, io.Closer, error) {
	switch cfg.Store.Driver {
	case "memory":
		return NewMemoryStore(), nopCloser{}, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		return s, s, nil
	case "redis":
		cli, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		return red.NewStore(cli, cfg.Redis.KeyPrefix), cli, nil
	default:
		return nil, nil, fmt.Errorf("store driver %q not supported", cfg.Store.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
