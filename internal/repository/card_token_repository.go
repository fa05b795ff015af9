package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vaultgate/card-token-service/internal/domain"
	"github.com/vaultgate/card-token-service/pkg/database"
)

const cardTokenColumns = `id, user_id, signed_token, masked_card_number, cardholder_name, scope, expires_at, is_revoked, created_at`

// cardTokenRepository implements CardTokenRepository over the ledger table
type cardTokenRepository struct {
	db *database.Postgres
}

// NewCardTokenRepository creates a new card token repository
func NewCardTokenRepository(db *database.Postgres) CardTokenRepository {
	return &cardTokenRepository{db: db}
}

// Create inserts a new ledger row
func (r *cardTokenRepository) Create(ctx context.Context, token *domain.CardToken) error {
	query := `
		INSERT INTO card_tokens (` + cardTokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if token.ID == "" {
		token.ID = uuid.New().String()
	}

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.SignedToken,
		token.MaskedCardNumber,
		token.CardholderName,
		token.Scope.String(),
		token.ExpiresAt,
		token.IsRevoked,
		token.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("signed token already stored: %w", ErrDuplicateToken)
			}
		}
		return fmt.Errorf("failed to create card token: %w", err)
	}

	return nil
}

// GetBySignedToken retrieves a ledger row by exact match of the signed
// token string. The stored string is the lookup key; revocation and
// expiry state are left to the caller.
func (r *cardTokenRepository) GetBySignedToken(ctx context.Context, signedToken string) (*domain.CardToken, error) {
	query := `
		SELECT ` + cardTokenColumns + `
		FROM card_tokens
		WHERE signed_token = $1
	`

	return scanCardToken(r.db.DB.QueryRowContext(ctx, query, signedToken))
}

// GetByID retrieves a ledger row by id, scoped to its owner
func (r *cardTokenRepository) GetByID(ctx context.Context, id, userID string) (*domain.CardToken, error) {
	query := `
		SELECT ` + cardTokenColumns + `
		FROM card_tokens
		WHERE id = $1 AND user_id = $2
	`

	return scanCardToken(r.db.DB.QueryRowContext(ctx, query, id, userID))
}

// ListActive retrieves all non-revoked, non-expired rows for a user in
// creation order
func (r *cardTokenRepository) ListActive(ctx context.Context, userID string) ([]*domain.CardToken, error) {
	query := `
		SELECT ` + cardTokenColumns + `
		FROM card_tokens
		WHERE user_id = $1 AND is_revoked = false AND expires_at > $2
		ORDER BY created_at
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list card tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.CardToken
	for rows.Next() {
		token, err := scanCardTokenRow(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card tokens: %w", err)
	}

	return tokens, nil
}

// Revoke flips is_revoked once. The row is locked before the state
// checks so a revoke racing another mutation sees committed state:
// the loser gets ErrAlreadyRevoked, never a silent success.
func (r *cardTokenRepository) Revoke(ctx context.Context, id, userID, presentedToken string) (*domain.CardToken, error) {
	var revoked *domain.CardToken

	err := r.withRowLock(ctx, id, userID, func(tx *sql.Tx, current *domain.CardToken) error {
		if current.SignedToken != presentedToken {
			return ErrTokenMismatch
		}
		if current.IsRevoked {
			return ErrAlreadyRevoked
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE card_tokens SET is_revoked = true WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to revoke card token: %w", err)
		}

		current.IsRevoked = true
		revoked = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return revoked, nil
}

// Refresh overwrites signed_token and expires_at in place, the one
// sanctioned mutation of a stored token string. Forbidden once the row
// is revoked or past its expiry.
func (r *cardTokenRepository) Refresh(ctx context.Context, id, userID, presentedToken, newSignedToken string, newExpiresAt time.Time) (*domain.CardToken, error) {
	var refreshed *domain.CardToken

	err := r.withRowLock(ctx, id, userID, func(tx *sql.Tx, current *domain.CardToken) error {
		if current.SignedToken != presentedToken {
			return ErrTokenMismatch
		}
		if current.IsRevoked {
			return ErrAlreadyRevoked
		}
		if !current.ExpiresAt.After(time.Now().UTC()) {
			return ErrTokenExpired
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE card_tokens SET signed_token = $1, expires_at = $2 WHERE id = $3`,
			newSignedToken, newExpiresAt, id); err != nil {
			return fmt.Errorf("failed to refresh card token: %w", err)
		}

		current.SignedToken = newSignedToken
		current.ExpiresAt = newExpiresAt
		refreshed = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return refreshed, nil
}

// Delete removes the row permanently
func (r *cardTokenRepository) Delete(ctx context.Context, id, userID, presentedToken string) error {
	return r.withRowLock(ctx, id, userID, func(tx *sql.Tx, current *domain.CardToken) error {
		if current.SignedToken != presentedToken {
			return ErrTokenMismatch
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM card_tokens WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete card token: %w", err)
		}

		return nil
	})
}

// DeleteExpired removes all rows past their expiry. Storage hygiene
// only; correctness never depends on it.
func (r *cardTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.DB.ExecContext(ctx,
		`DELETE FROM card_tokens WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired card tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// withRowLock runs fn inside a transaction holding a FOR UPDATE lock
// on the target row, committing on nil and rolling back otherwise.
func (r *cardTokenRepository) withRowLock(ctx context.Context, id, userID string, fn func(tx *sql.Tx, current *domain.CardToken) error) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT ` + cardTokenColumns + `
		FROM card_tokens
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`

	current, err := scanCardToken(tx.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return err
	}

	if err := fn(tx, current); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCardToken(row rowScanner) (*domain.CardToken, error) {
	token, err := scanCardTokenRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card token not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return token, nil
}

func scanCardTokenRow(row rowScanner) (*domain.CardToken, error) {
	token := &domain.CardToken{}
	var scope string

	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.SignedToken,
		&token.MaskedCardNumber,
		&token.CardholderName,
		&scope,
		&token.ExpiresAt,
		&token.IsRevoked,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan card token: %w", err)
	}

	token.Scope = domain.Scope(scope)
	return token, nil
}
