package kvauth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/internal/audit"
	"github.com/oracle/nosql-kvauth/session"
	"github.com/oracle/nosql-kvauth/topology"
)

// mockVerifier is an in-memory UserVerifier with plaintext passwords; the
// hashing path is covered by the store-backed verifier's own tests.
type mockVerifier struct {
	users     map[string]*UserInfo
	passwords map[string]string
	expired   map[string]bool
}

func newMockVerifier() *mockVerifier {
	return &mockVerifier{
		users:     make(map[string]*UserInfo),
		passwords: make(map[string]string),
		expired:   make(map[string]bool),
	}
}

func (m *mockVerifier) add(user *UserInfo, password string) {
	m.users[user.Principal] = user
	m.passwords[user.Principal] = password
}

func (m *mockVerifier) VerifyLogin(username string, password []byte) (*UserInfo, error) {
	user, ok := m.users[username]
	if !ok || m.passwords[username] != string(password) {
		return nil, fmt.Errorf("%w: bad credentials", autherr.ErrAuthenticationFailure)
	}
	if m.expired[username] {
		return nil, ErrPasswordExpired
	}
	return user, nil
}

func (m *mockVerifier) RenewPassword(username string, oldPassword, newPassword []byte) (*UserInfo, error) {
	user, ok := m.users[username]
	if !ok || m.passwords[username] != string(oldPassword) {
		return nil, fmt.Errorf("%w: bad credentials", autherr.ErrAuthenticationFailure)
	}
	if !m.expired[username] {
		return nil, fmt.Errorf("%w: password not expired", autherr.ErrAuthenticationFailure)
	}
	m.passwords[username] = string(newPassword)
	m.expired[username] = false
	return user, nil
}

func (m *mockVerifier) LookupUser(username string) (*UserInfo, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user", autherr.ErrAuthenticationFailure)
	}
	return user, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestEngine(t *testing.T, mutate func(*Config), opts ...func(*Builder)) (*Engine, *mockVerifier, *miniredis.Miniredis) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	t.Cleanup(func() { mr.Close() })

	verifier := newMockVerifier()
	verifier.add(&UserInfo{Principal: "alice", Roles: []string{"reader"}}, "sekret-123")
	verifier.add(&UserInfo{Principal: "agent", Roles: []string{"internal"}, Internal: true}, "agent-pass")

	cfg := *defaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	b := New().WithConfig(cfg).WithRedis(rdb).WithUserVerifier(verifier)
	for _, opt := range opts {
		opt(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, verifier, mr
}

func TestLoginIssuesValidToken(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	result, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Token == nil {
		t.Fatal("login must return a token")
	}
	if result.Token.ExpireAt() == 0 {
		t.Fatal("default config grants a bounded session")
	}

	subject, err := engine.ValidateLoginToken(ctx, result.Token)
	if err != nil {
		t.Fatalf("ValidateLoginToken failed: %v", err)
	}
	if subject == nil {
		t.Fatal("fresh token must validate")
	}
	if subject.Principal != "alice" || !subject.HasRole("reader") {
		t.Fatalf("subject = %+v, want alice/reader", subject)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)

	_, err := engine.Login(context.Background(), Credentials{Username: "alice", Password: []byte("wrong")})
	if autherr.KindOf(err) != autherr.KindAuthenticationFailure {
		t.Fatalf("got %v, want authentication-failure", err)
	}
	if engine.Metrics().Value(MetricLoginFailure) != 1 {
		t.Fatal("failed login must count")
	}
}

func TestLoginExpiredPasswordFlow(t *testing.T) {
	engine, verifier, _ := newTestEngine(t, nil)
	verifier.expired["alice"] = true
	ctx := context.Background()

	_, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if !errors.Is(err, ErrPasswordExpired) {
		t.Fatalf("got %v, want ErrPasswordExpired", err)
	}

	// Renewal with a wrong old password is refused.
	_, err = engine.RenewPasswordLogin(ctx, RenewCredentials{
		Username: "alice", OldPassword: []byte("wrong"), NewPassword: []byte("fresh-456"),
	})
	if autherr.KindOf(err) != autherr.KindAuthenticationFailure {
		t.Fatalf("got %v, want authentication-failure", err)
	}

	result, err := engine.RenewPasswordLogin(ctx, RenewCredentials{
		Username: "alice", OldPassword: []byte("sekret-123"), NewPassword: []byte("fresh-456"),
	})
	if err != nil {
		t.Fatalf("RenewPasswordLogin failed: %v", err)
	}
	if result.Token == nil {
		t.Fatal("renewal login must return a token")
	}

	// The new password now logs in directly.
	if _, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("fresh-456")}); err != nil {
		t.Fatalf("login with renewed password failed: %v", err)
	}
}

func TestValidateInvalidTokenIsNilNil(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	subject, err := engine.ValidateLoginToken(ctx, nil)
	if subject != nil || err != nil {
		t.Fatalf("nil token: got (%v, %v), want (nil, nil)", subject, err)
	}

	id, err := session.NewPersistentID([]byte("never-issued"))
	if err != nil {
		t.Fatalf("NewPersistentID failed: %v", err)
	}
	unknown := session.NewToken(id, time.Now().Add(time.Hour).UnixMilli())
	subject, err = engine.ValidateLoginToken(ctx, unknown)
	if subject != nil || err != nil {
		t.Fatalf("unknown token: got (%v, %v), want (nil, nil)", subject, err)
	}

	stale := session.NewToken(id, time.Now().Add(-time.Second).UnixMilli())
	subject, err = engine.ValidateLoginToken(ctx, stale)
	if subject != nil || err != nil {
		t.Fatalf("expired token: got (%v, %v), want (nil, nil)", subject, err)
	}
	if engine.Metrics().Value(MetricValidateInvalid) != 3 {
		t.Fatalf("invalid count = %d, want 3", engine.Metrics().Value(MetricValidateInvalid))
	}
}

func TestValidateBackendDownIsErrorNotInvalid(t *testing.T) {
	engine, _, mr := newTestEngine(t, nil)
	ctx := context.Background()

	result, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	mr.Close()
	subject, err := engine.ValidateLoginToken(ctx, result.Token)
	if subject != nil {
		t.Fatal("unknown validity must not produce a subject")
	}
	if autherr.KindOf(err) != autherr.KindSessionAccess {
		t.Fatalf("got %v, want session-access", err)
	}
}

func TestSessionExtension(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(cfg *Config) {
		cfg.Session.TTL = time.Hour
	})
	ctx := context.Background()

	result, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	renewed, err := engine.RequestSessionExtension(ctx, result.Token)
	if err != nil {
		t.Fatalf("RequestSessionExtension failed: %v", err)
	}
	if renewed == nil {
		t.Fatal("extension must be granted under default policy")
	}
	if !renewed.ID().Equal(result.Token.ID()) {
		t.Fatal("extension must keep the session identity")
	}
	if renewed.ExpireAt() < result.Token.ExpireAt() {
		t.Fatal("extension must not move the expiration backward")
	}
}

func TestSessionExtensionDisabledByPolicy(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(cfg *Config) {
		cfg.Session.AllowExtension = false
	})
	ctx := context.Background()

	result, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	renewed, err := engine.RequestSessionExtension(ctx, result.Token)
	if renewed != nil || err != nil {
		t.Fatalf("got (%v, %v), want (nil, nil) when extension is policy-disabled", renewed, err)
	}
}

func TestRefreshSessionSubjectPicksUpRoleChanges(t *testing.T) {
	engine, verifier, _ := newTestEngine(t, nil)
	ctx := context.Background()

	result, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Grant a role after login; the live session still carries the old set.
	verifier.users["alice"].Roles = []string{"reader", "writer"}
	subject, err := engine.ValidateLoginToken(ctx, result.Token)
	if err != nil || subject == nil {
		t.Fatalf("validate: (%v, %v)", subject, err)
	}
	if subject.HasRole("writer") {
		t.Fatal("session must not see the grant before a refresh")
	}

	refreshed, err := engine.RefreshSessionSubject(ctx, result.Token)
	if err != nil {
		t.Fatalf("RefreshSessionSubject failed: %v", err)
	}
	if refreshed == nil || !refreshed.HasRole("writer") {
		t.Fatalf("refreshed = %+v, want writer role", refreshed)
	}

	// Validators now observe the new roles.
	subject, err = engine.ValidateLoginToken(ctx, result.Token)
	if err != nil || subject == nil || !subject.HasRole("writer") {
		t.Fatalf("after refresh: (%+v, %v)", subject, err)
	}

	// An invalid token refreshes to (nil, nil), same as validation.
	refreshed, err = engine.RefreshSessionSubject(ctx, nil)
	if refreshed != nil || err != nil {
		t.Fatalf("nil token: got (%v, %v), want (nil, nil)", refreshed, err)
	}
}

func TestLogoutIdempotentAndInvalidates(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	result, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.Logout(ctx, result.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	subject, err := engine.ValidateLoginToken(ctx, result.Token)
	if subject != nil || err != nil {
		t.Fatalf("after logout: got (%v, %v), want (nil, nil)", subject, err)
	}

	if err := engine.Logout(ctx, result.Token); err != nil {
		t.Fatalf("repeated Logout failed: %v", err)
	}
	if err := engine.Logout(ctx, nil); err != nil {
		t.Fatalf("Logout with nil token failed: %v", err)
	}
}

func TestProxyLoginTrustedByRole(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	agent, err := engine.Login(ctx, Credentials{Username: "agent", Password: []byte("agent-pass")})
	if err != nil {
		t.Fatalf("agent login failed: %v", err)
	}

	result, err := engine.ProxyLogin(ctx, ProxyCredentials{Target: "alice"}, agent.Token)
	if err != nil {
		t.Fatalf("ProxyLogin failed: %v", err)
	}

	subject, err := engine.ValidateLoginToken(ctx, result.Token)
	if err != nil || subject == nil {
		t.Fatalf("proxy token must validate: (%v, %v)", subject, err)
	}
	if subject.Principal != "alice" {
		t.Fatalf("proxy session principal = %s, want alice", subject.Principal)
	}
}

func TestProxyLoginUntrustedCallerDenied(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	// alice holds no trusted role.
	user, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := engine.ProxyLogin(ctx, ProxyCredentials{Target: "agent"}, user.Token); !errors.Is(err, ErrProxyNotTrusted) {
		t.Fatalf("got %v, want ErrProxyNotTrusted", err)
	}
	if _, err := engine.ProxyLogin(ctx, ProxyCredentials{Target: "agent"}, nil); !errors.Is(err, ErrProxyNotTrusted) {
		t.Fatalf("no caller token: got %v, want ErrProxyNotTrusted", err)
	}
}

func TestProxyLoginDisabledIsUnsupported(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(cfg *Config) {
		cfg.Proxy.Enabled = false
	})

	_, err := engine.ProxyLogin(context.Background(), ProxyCredentials{Target: "alice"}, nil)
	if autherr.KindOf(err) != autherr.KindUnsupportedOperation {
		t.Fatalf("got %v, want unsupported-operation", err)
	}
}

func TestLoginRateLimiting(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(cfg *Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.MaxAttempts = 3
		cfg.RateLimit.Window = time.Minute
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("wrong")}); autherr.KindOf(err) != autherr.KindAuthenticationFailure {
			t.Fatalf("attempt %d: got %v, want authentication-failure", i, err)
		}
	}

	// The window is exhausted; even the right password is refused now.
	_, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("got %v, want ErrLoginRateLimited", err)
	}
	if engine.Metrics().Value(MetricLoginRateLimited) == 0 {
		t.Fatal("rate-limited login must count")
	}
}

func TestOwnedEngineAllocatesStoreScopedSessions(t *testing.T) {
	owner := topology.ResourceID{Type: topology.StorageNode, Number: 5}
	engine, _, _ := newTestEngine(t, nil, func(b *Builder) {
		b.WithOwner(owner)
	})

	result, err := engine.Login(context.Background(), Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	id := result.Token.ID()
	if id.Scope() != session.StoreWide {
		t.Fatalf("scope = %s, want store", id.Scope())
	}
	alloc, ok := id.Allocator()
	if !ok || !alloc.Equal(owner) {
		t.Fatalf("allocator = %v, want %v", alloc, owner)
	}
}

func TestEngineTokenSurvivesWireRoundTrip(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	result, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	hexStr, err := result.Token.EncodeHex()
	if err != nil {
		t.Fatalf("EncodeHex failed: %v", err)
	}
	decoded, err := session.DecodeHex(hexStr)
	if err != nil {
		t.Fatalf("DecodeHex failed: %v", err)
	}

	subject, err := engine.ValidateLoginToken(ctx, decoded)
	if err != nil || subject == nil {
		t.Fatalf("decoded token must validate: (%v, %v)", subject, err)
	}
}

// gatedAuditSink blocks the dispatcher worker until released, so the
// buffer fills and overflow policy kicks in.
type gatedAuditSink struct {
	gate chan struct{}
}

func (s *gatedAuditSink) Emit(_ context.Context, _ AuditEvent) {
	<-s.gate
}

func TestEngineAccountsDroppedAuditEvents(t *testing.T) {
	sink := &gatedAuditSink{gate: make(chan struct{})}
	engine, _, _ := newTestEngine(t, func(cfg *Config) {
		cfg.Audit = audit.Config{Enabled: true, BufferSize: 1, DropIfFull: true}
	}, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	defer close(sink.gate)

	ctx := context.Background()
	deadline := time.Now().Add(2 * time.Second)
	for engine.AuditDropped() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("engine never recorded an audit drop")
		}
		if _, err := engine.Login(ctx, Credentials{Username: "alice", Password: []byte("sekret-123")}); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
	}
}
