package service

import "errors"

// Business error kinds. Handlers discriminate on these with errors.Is;
// no layer ever matches on message text.
var (
	// ErrInvalidCredentials is returned on login failure. One error for
	// unknown email, wrong password and inactive account, so callers
	// cannot enumerate registered addresses.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrDuplicateEmail is returned when signing up an already registered email
	ErrDuplicateEmail = errors.New("email is already registered")

	// ErrInvalidEmail is returned when the email fails format validation
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrMissingSubject is returned when a verified user token carries no sub claim
	ErrMissingSubject = errors.New("token has no subject")

	// ErrUserNotFound is returned when a verified token references a user
	// that no longer exists
	ErrUserNotFound = errors.New("user not found")

	// ErrTokenRevoked is returned when a presented card token matches no
	// ledger row or matches a revoked one. The two cases are deliberately
	// indistinguishable.
	ErrTokenRevoked = errors.New("card token is revoked or invalid")

	// ErrInsufficientScope is returned when the resolved scope is outside
	// the allowed set for the operation
	ErrInsufficientScope = errors.New("insufficient scope")

	// ErrInvalidCardNumber is returned when the card number fails the Luhn check
	ErrInvalidCardNumber = errors.New("invalid card number")

	// ErrCardExpired is returned when the card expiry is in the past, or
	// when refreshing a token past its expires_at
	ErrCardExpired = errors.New("card is expired")

	// ErrInvalidScope is returned when an issue request names an unknown scope
	ErrInvalidScope = errors.New("invalid scope")

	// ErrInvalidExpiry is returned when the expiry month is outside 1-12
	ErrInvalidExpiry = errors.New("invalid expiry date")

	// ErrAlreadyRevoked is returned when revoking or refreshing an
	// already revoked card token. Revocation is monotonic; a second
	// revoke is a caller error, not a no-op.
	ErrAlreadyRevoked = errors.New("card token is already revoked")

	// ErrTokenMismatch is returned when the presented token string does
	// not match the stored signed_token. Surfaced to callers as not-found
	// so holding a stale token confirms nothing about the id.
	ErrTokenMismatch = errors.New("token mismatch")

	// ErrNotFound is returned when a card token is absent, not owned by
	// the caller, or expired. The three cases are indistinguishable.
	ErrNotFound = errors.New("card token not found")
)
