//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/infra/store"
	"flixgo-client/internal/usecase"
)

func TestProgressUseCase(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	uc := usecase.NewProgressUseCase(st, newTestLogger())

	if _, ok, err := uc.Get(ctx, 42); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := uc.Set(ctx, 42, 120.5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if raw, _, _ := st.Get(ctx, "watch-42"); raw != "120.5" {
		t.Errorf("stored value: %q", raw)
	}
	if v, ok, _ := uc.Get(ctx, 42); !ok || v != 120.5 {
		t.Errorf("Get: %v %v", v, ok)
	}

	_ = st.Set(ctx, "watch-42", "oops")
	if _, ok, err := uc.Get(ctx, 42); ok || err != nil {
		t.Errorf("malformed value should read as absent: ok=%v err=%v", ok, err)
	}

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		if err := uc.Set(ctx, 42, bad); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("Set(%v): %v", bad, err)
		}
	}
	if err := uc.Set(ctx, 0, 1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("movie 0: %v", err)
	}

	if err := uc.Clear(ctx, 42); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := uc.Get(ctx, 42); ok {
		t.Error("cleared progress still present")
	}
}
