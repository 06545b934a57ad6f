package kvauth

import (
	"context"
	"testing"
	"time"
)

func TestBuildRequiresVerifier(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("building without a verifier must fail")
	}
}

func TestBuildRejectsReuse(t *testing.T) {
	b := New().WithUserVerifier(newMockVerifier())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("second Build on the same builder must fail")
	}
}

func TestBuildRateLimitRequiresRedis(t *testing.T) {
	cfg := *defaultConfig()
	cfg.RateLimit.Enabled = true

	_, err := New().WithConfig(cfg).WithUserVerifier(newMockVerifier()).Build()
	if err == nil {
		t.Fatal("rate limiting without redis must fail")
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	cfg := *defaultConfig()
	cfg.Session.TTL = -time.Hour

	_, err := New().WithConfig(cfg).WithUserVerifier(newMockVerifier()).Build()
	if err == nil {
		t.Fatal("negative session TTL must fail validation")
	}
}

func TestBuildWithoutRedisUsesMemoryStore(t *testing.T) {
	verifier := newMockVerifier()
	verifier.add(&UserInfo{Principal: "alice", Roles: []string{"reader"}}, "sekret-123")

	engine, err := New().WithUserVerifier(verifier).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	result, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	subject, err := engine.ValidateLoginToken(ctx, result.Token)
	if err != nil || subject == nil {
		t.Fatalf("memory-backed session must validate: (%v, %v)", subject, err)
	}
}
