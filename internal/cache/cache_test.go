package cache

import (
	"context"
	"testing"
	"time"

	"github.com/tokonext/internal/config"
	"github.com/tokonext/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	var dest map[string]string
	if hit, err := GetJSON(ctx, "k", &dest); hit || err != nil {
		t.Fatalf("disabled get should miss without error")
	}
	if err := SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute); err != nil {
		t.Fatalf("disabled set should be a no-op: %v", err)
	}
	if NewIdempotencyStore() != nil {
		t.Fatalf("idempotency store requires redis")
	}
	if state, hit, err := GetUserAuthState(ctx, 1); state != nil || hit || err != nil {
		t.Fatalf("disabled auth state lookup should miss")
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	old := redisPrefix
	defer func() { redisPrefix = old }()
	redisPrefix = "toko"
	if got := BuildKey(" auth:user:1 "); got != "toko:auth:user:1" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := BuildKey(""); got != "toko" {
		t.Fatalf("empty key should return prefix, got %s", got)
	}
}

func TestBuildUserAuthState(t *testing.T) {
	invalidBefore := time.Unix(1700000000, 0)
	state := BuildUserAuthState(&models.User{ID: 3, Status: "active", TokenVersion: 2, TokenInvalidBefore: &invalidBefore})
	if state.UserID != 3 || state.TokenVersion != 2 || state.TokenInvalidBefore != 1700000000 {
		t.Fatalf("unexpected auth state %+v", state)
	}
	if BuildUserAuthState(nil) != nil {
		t.Fatalf("nil user should yield nil state")
	}
	if !state.Active() {
		t.Fatalf("active user state expected")
	}
	if state.Revoked(2, invalidBefore.Add(time.Minute)) {
		t.Fatalf("token issued after the cutoff should be accepted")
	}
	if !state.Revoked(1, invalidBefore.Add(time.Minute)) {
		t.Fatalf("older token version should be revoked")
	}
	if !state.Revoked(2, invalidBefore.Add(-time.Minute)) {
		t.Fatalf("token issued before the cutoff should be revoked")
	}
	if !(*UserAuthState)(nil).Revoked(0, time.Now()) {
		t.Fatalf("missing state should be treated as revoked")
	}
}
