package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/repository"
)

var _ ProgressUseCase = (*progressUC)(nil)

// ProgressUseCase reads and writes resumable watch positions outside a
// playback session (operator tooling, the local API).
type ProgressUseCase interface {
	Get(ctx context.Context, movieID int) (seconds float64, ok bool, err error)
	Set(ctx context.Context, movieID int, seconds float64) error
	Clear(ctx context.Context, movieID int) error
}

type progressUC struct {
	store repository.KeyValueStore
	log   *zerolog.Logger
}

func NewProgressUseCase(store repository.KeyValueStore, logger *zerolog.Logger) *progressUC {
	return &progressUC{store: store, log: logger}
}

func (u *progressUC) Get(ctx context.Context, movieID int) (float64, bool, error) {
	if movieID <= 0 {
		return 0, false, fmt.Errorf("%w: movie id %d", domain.ErrInvalidArgument, movieID)
	}
	raw, ok, err := u.store.Get(ctx, model.WatchProgressKey(movieID))
	if err != nil || !ok {
		return 0, false, err
	}
	v, valid := model.ParseProgress(raw)
	if !valid {
		u.log.Warn().Int("movie_id", movieID).Str("value", raw).Msg("ignoring malformed watch progress")
		return 0, false, nil
	}
	return v, true, nil
}

func (u *progressUC) Set(ctx context.Context, movieID int, seconds float64) error {
	if movieID <= 0 {
		return fmt.Errorf("%w: movie id %d", domain.ErrInvalidArgument, movieID)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return fmt.Errorf("%w: position %v", domain.ErrInvalidArgument, seconds)
	}
	return u.store.Set(ctx, model.WatchProgressKey(movieID), model.EncodeProgress(seconds))
}

func (u *progressUC) Clear(ctx context.Context, movieID int) error {
	if movieID <= 0 {
		return fmt.Errorf("%w: movie id %d", domain.ErrInvalidArgument, movieID)
	}
	return u.store.Delete(ctx, model.WatchProgressKey(movieID))
}
