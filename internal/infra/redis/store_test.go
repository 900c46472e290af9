//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
)

func TestStore_GetSetClear(t *testing.T) {
	ctx := context.Background()
	cli := newMemRedis()
	cli.data["other:watch-1"] = "9"
	s := NewStore(cli, "flixgo:")

	t.Run("missing key is not an error", func(t *testing.T) {
		v, ok, err := s.Get(ctx, "watch-42")
		if err != nil || ok || v != "" {
			t.Fatalf("want miss, got %q %v %v", v, ok, err)
		}
	})

	t.Run("set then get uses the prefix", func(t *testing.T) {
		if err := s.Set(ctx, "watch-42", "120.5"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if cli.data["flixgo:watch-42"] != "120.5" {
			t.Fatalf("raw key not prefixed: %v", cli.data)
		}
		v, ok, err := s.Get(ctx, "watch-42")
		if err != nil || !ok || v != "120.5" {
			t.Fatalf("want 120.5, got %q %v %v", v, ok, err)
		}
	})

	t.Run("clear only drops prefixed keys", func(t *testing.T) {
		_ = s.Set(ctx, "currentPlanId", "2")
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "currentPlanId"); ok {
			t.Error("currentPlanId should be gone")
		}
		if cli.data["other:watch-1"] != "9" {
			t.Error("foreign keys must survive Clear")
		}
	})

	t.Run("backend errors propagate", func(t *testing.T) {
		cli.getErr = errors.New("conn reset")
		defer func() { cli.getErr = nil }()
		if _, _, err := s.Get(ctx, "x"); err == nil {
			t.Fatal("expected error")
		}
	})
}
