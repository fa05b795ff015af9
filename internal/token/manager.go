package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure: malformed input,
// wrong signature, expired token. Callers must not be able to tell
// these apart; the underlying cause is carried only for logging.
var ErrInvalidToken = errors.New("invalid or expired token")

// Reserved claim keys are always set by Sign and never trusted from
// caller-supplied data.
const (
	ClaimSubject  = "sub"
	ClaimExpiry   = "exp"
	ClaimIssuedAt = "iat"
	ClaimTokenID  = "jti"
)

// Manager signs and verifies compact signed claim sets with a single
// shared HS256 secret. No key rotation.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// ExpirySeconds returns the token lifetime in whole seconds.
func (m *Manager) ExpirySeconds() int {
	return int(m.ttl.Seconds())
}

// Sign serializes the claim map into a signed token. The standard
// claims exp, iat and jti are injected here, overwriting whatever the
// caller supplied for them. The returned time is the injected expiry,
// so ledger rows can be written with the exact same instant.
func (m *Manager) Sign(claims map[string]any) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.ttl)

	mapClaims := jwt.MapClaims{}
	for k, v := range claims {
		mapClaims[k] = v
	}
	mapClaims[ClaimExpiry] = expiresAt.Unix()
	mapClaims[ClaimIssuedAt] = now.Unix()
	mapClaims[ClaimTokenID] = uuid.New().String()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify checks signature integrity and expiry and returns the claim
// set. Any failure collapses to ErrInvalidToken.
func (m *Manager) Verify(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
