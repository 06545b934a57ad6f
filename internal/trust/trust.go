// Package trust mints and verifies the signed identity assertions internal
// store components present when they need to act without a user credential,
// most importantly to authorize proxy login. Assertions are short-lived
// ed25519-signed JWTs naming the component.
//
// # What this package must NOT do
//
//   - Accept unsigned or HMAC tokens; only ed25519 with a configured
//     verify key set.
//   - Grant anything. Verification yields a component name; policy lives
//     with the engine.
package trust

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const assertionIssuer = "kvstore-internal"

var (
	// ErrAssertionInvalid means the assertion failed signature or claim
	// validation.
	ErrAssertionInvalid = errors.New("invalid component assertion")
)

// Claims carried by a component assertion.
type Claims struct {
	Component string `json:"cmp"`
	jwt.RegisteredClaims
}

// Config for a Verifier or Minter.
type Config struct {
	// PrivateKey signs minted assertions. Only components that issue
	// assertions need it.
	PrivateKey ed25519.PrivateKey
	// VerifyKeys maps key id to public key. Required for verification.
	VerifyKeys map[string]ed25519.PublicKey
	// KeyID names the signing key in minted assertion headers.
	KeyID string
	// TTL bounds assertion lifetime. Defaults to two minutes; assertions
	// are minted per call and never cached.
	TTL time.Duration
}

// Manager mints and verifies assertions per its configured keys.
type Manager struct {
	config Config
}

// NewManager validates the key material up front.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.VerifyKeys) == 0 && cfg.PrivateKey == nil {
		return nil, errors.New("trust manager requires a private key or verify keys")
	}
	if cfg.PrivateKey != nil && len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("invalid ed25519 private key size")
	}
	for kid, key := range cfg.VerifyKeys {
		if kid == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		if len(key) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid ed25519 verify key for kid %q", kid)
		}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	return &Manager{config: cfg}, nil
}

// Mint signs an assertion naming the component.
func (m *Manager) Mint(component string) (string, error) {
	if m.config.PrivateKey == nil {
		return "", errors.New("trust manager has no signing key")
	}
	if component == "" {
		return "", errors.New("empty component name")
	}
	now := time.Now()
	claims := Claims{
		Component: component,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    assertionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.config.PrivateKey)
}

// Verify checks an assertion and returns the component it names.
func (m *Manager) Verify(assertion string) (string, error) {
	if len(m.config.VerifyKeys) == 0 {
		return "", fmt.Errorf("%w: no verify keys configured", ErrAssertionInvalid)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(assertionIssuer),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(assertion, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := m.config.VerifyKeys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown kid %q", kid)
		}
		return key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssertionInvalid, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Component == "" {
		return "", fmt.Errorf("%w: missing component claim", ErrAssertionInvalid)
	}
	return claims.Component, nil
}
