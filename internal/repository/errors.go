package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateToken is returned when trying to persist a signed token string that already exists
	ErrDuplicateToken = errors.New("signed token already exists")

	// ErrTokenMismatch is returned when the presented token string does not
	// match the stored signed_token of the row being mutated
	ErrTokenMismatch = errors.New("presented token does not match stored token")

	// ErrAlreadyRevoked is returned when revoking or refreshing a row whose
	// is_revoked flag is already set
	ErrAlreadyRevoked = errors.New("card token is already revoked")

	// ErrTokenExpired is returned when refreshing a row past its expires_at
	ErrTokenExpired = errors.New("card token is expired")
)
