package domain

import (
	"fmt"
	"time"
)

// Scope is the permission tier fixed at card-token issuance. It gates
// which lifecycle operations the token may invoke.
type Scope string

const (
	ScopeReadOnly    Scope = "read-only"
	ScopeFullAccess  Scope = "full-access"
	ScopeRefreshOnly Scope = "refresh-only"
)

// DefaultScope is applied when an issue request names no scope.
const DefaultScope = ScopeFullAccess

// ParseScope converts an external string into a Scope, rejecting
// anything outside the three known tiers.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeReadOnly, ScopeFullAccess, ScopeRefreshOnly:
		return Scope(s), nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

func (s Scope) String() string {
	return string(s)
}

// In reports whether the scope is a member of the allowed set.
func (s Scope) In(allowed ...Scope) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// CardToken is a ledger row binding a signed token string to its
// owning user, the masked card payload, a scope, and revocation state.
// The ledger is authoritative for revocation; the token's own embedded
// expiry is authoritative for time-based validity.
type CardToken struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"-" db:"user_id"`
	SignedToken      string    `json:"signed_token" db:"signed_token"`
	MaskedCardNumber string    `json:"masked_card_number" db:"masked_card_number"`
	CardholderName   string    `json:"cardholder_name" db:"cardholder_name"`
	Scope            Scope     `json:"scope" db:"scope"`
	ExpiresAt        time.Time `json:"expires_at" db:"expires_at"`
	IsRevoked        bool      `json:"is_revoked" db:"is_revoked"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// IsActive reports whether the row is neither revoked nor past its
// expiry. Both conditions are checked; never one alone.
func (ct *CardToken) IsActive(now time.Time) bool {
	return !ct.IsRevoked && ct.ExpiresAt.After(now)
}
