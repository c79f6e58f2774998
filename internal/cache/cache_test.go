package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("expected cache disabled")
	}
	ctx := context.Background()
	var dest map[string]string
	hit, err := GetJSON(ctx, "k", &dest)
	if err != nil || hit {
		t.Fatalf("expected miss without error, got hit=%v err=%v", hit, err)
	}
	if err := SetJSON(ctx, "k", map[string]string{"a": "b"}, 0); err != nil {
		t.Fatalf("set on disabled cache failed: %v", err)
	}
	if err := Del(ctx, "k", "j"); err != nil {
		t.Fatalf("del on disabled cache failed: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("close on disabled cache failed: %v", err)
	}
}

func TestBuildKeyPrefixesOnce(t *testing.T) {
	redisPrefix = "aff"
	cases := map[string]string{
		"setting:x":      "aff:setting:x",
		" aff:setting:x": "aff:setting:x",
		"":               "aff",
	}
	for input, want := range cases {
		if got := buildKey(input); got != want {
			t.Fatalf("buildKey(%q) want %q got %q", input, want, got)
		}
	}
}

func TestLoadAdminAuthStateFallsBackToLoader(t *testing.T) {
	ctx := context.Background()
	calls := 0
	state, err := LoadAdminAuthState(ctx, 3, func() (*models.Admin, error) {
		calls++
		return &models.Admin{ID: 3, Username: "ops", TokenVersion: 2, IsSuper: true}, nil
	})
	if err != nil {
		t.Fatalf("load auth state failed: %v", err)
	}
	if calls != 1 || state == nil || !state.IsSuper {
		t.Fatalf("unexpected state %+v after %d calls", state, calls)
	}
	if !state.Accepts(2) || state.Accepts(1) {
		t.Fatalf("token version check mismatch")
	}

	missing, err := LoadAdminAuthState(ctx, 4, func() (*models.Admin, error) { return nil, nil })
	if err != nil || missing != nil {
		t.Fatalf("expected nil state for missing admin, got %+v err=%v", missing, err)
	}

	boom := errors.New("db down")
	if _, err := LoadAdminAuthState(ctx, 5, func() (*models.Admin, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	var nilState *AdminAuthState
	if nilState.Accepts(0) {
		t.Fatalf("nil state must not accept tokens")
	}
}
