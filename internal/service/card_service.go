package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vaultgate/card-token-service/internal/domain"
	"github.com/vaultgate/card-token-service/internal/dto"
	"github.com/vaultgate/card-token-service/internal/repository"
	"github.com/vaultgate/card-token-service/internal/token"
	"github.com/vaultgate/card-token-service/internal/utils"
)

// RevocationStore is the fast-path cache consulted before the ledger.
// Implementations are best effort; the ledger remains authoritative.
type RevocationStore interface {
	MarkRevoked(ctx context.Context, signedToken string, ttl time.Duration) error
	IsRevoked(ctx context.Context, signedToken string) (bool, error)
}

// cardService implements CardService interface
type cardService struct {
	cardRepo     repository.CardTokenRepository
	tokenManager *token.Manager
	revocations  RevocationStore
}

// NewCardService creates a new card lifecycle service. revocations may
// be nil, in which case every resolution goes straight to the ledger.
func NewCardService(cardRepo repository.CardTokenRepository, tokenManager *token.Manager, revocations RevocationStore) CardService {
	return &cardService{
		cardRepo:     cardRepo,
		tokenManager: tokenManager,
		revocations:  revocations,
	}
}

// Issue validates the card, mints a signed token over the cardholder
// payload and persists the ledger row. The raw PAN and CVV never reach
// the token or the database; only the masked number is stored.
func (s *cardService) Issue(ctx context.Context, userID string, req *dto.IssueCardRequest) (*domain.CardToken, error) {
	scope := domain.DefaultScope
	if req.Scope != "" {
		parsed, err := domain.ParseScope(req.Scope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScope, err)
		}
		scope = parsed
	}

	if !utils.ValidCardNumberLuhn(req.CardNumber) {
		return nil, ErrInvalidCardNumber
	}

	if req.ExpiryMonth < 1 || req.ExpiryMonth > 12 {
		return nil, ErrInvalidExpiry
	}

	now := time.Now().UTC()
	if req.ExpiryYear < now.Year() ||
		(req.ExpiryYear == now.Year() && req.ExpiryMonth < int(now.Month())) {
		return nil, ErrCardExpired
	}

	signed, expiresAt, err := s.tokenManager.Sign(map[string]any{
		"cardholder_name": req.CardholderName,
		"expiry_month":    req.ExpiryMonth,
		"expiry_year":     req.ExpiryYear,
		"scope":           scope.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign card token: %w", err)
	}

	cardToken := &domain.CardToken{
		UserID:           userID,
		SignedToken:      signed,
		MaskedCardNumber: utils.MaskCardNumber(req.CardNumber),
		CardholderName:   req.CardholderName,
		Scope:            scope,
		// Ledger expiry and codec exp are written from the same instant
		// so the two authorities never drift.
		ExpiresAt: expiresAt,
	}

	if err := s.cardRepo.Create(ctx, cardToken); err != nil {
		return nil, fmt.Errorf("failed to persist card token: %w", err)
	}

	return cardToken, nil
}

// ListActive returns the caller's non-revoked, non-expired rows in
// creation order
func (s *cardService) ListActive(ctx context.Context, userID string) ([]*domain.CardToken, error) {
	tokens, err := s.cardRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card tokens: %w", err)
	}
	return tokens, nil
}

// GetActive returns the row if it exists, belongs to the caller and is
// active. Absent, foreign-owned and expired rows are indistinguishable.
func (s *cardService) GetActive(ctx context.Context, id, userID string) (*domain.CardToken, error) {
	cardToken, err := s.cardRepo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card token: %w", err)
	}

	if !cardToken.IsActive(time.Now().UTC()) {
		return nil, ErrNotFound
	}

	return cardToken, nil
}

// Revoke flips is_revoked once; revoking again is an error. On success
// the token string is pushed into the revocation cache so subsequent
// resolutions reject it without a ledger read.
func (s *cardService) Revoke(ctx context.Context, id, userID, presentedToken string) (*domain.CardToken, error) {
	cardToken, err := s.cardRepo.Revoke(ctx, id, userID, presentedToken)
	if err != nil {
		return nil, mapLedgerError(err, "revoke")
	}

	if s.revocations != nil {
		// Best effort; the ledger row already carries the truth.
		_ = s.revocations.MarkRevoked(ctx, cardToken.SignedToken, time.Until(cardToken.ExpiresAt))
	}

	return cardToken, nil
}

// Delete removes the row permanently, revoked or not
func (s *cardService) Delete(ctx context.Context, id, userID, presentedToken string) error {
	if err := s.cardRepo.Delete(ctx, id, userID, presentedToken); err != nil {
		return mapLedgerError(err, "delete")
	}
	return nil
}

// Refresh re-signs the original claim payload with a fresh expiry and
// overwrites signed_token and expires_at in place. The claims carried
// by the new token are exactly the old ones; only exp, iat and jti
// change.
func (s *cardService) Refresh(ctx context.Context, id, userID, presentedToken string) (*domain.CardToken, error) {
	current, err := s.cardRepo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card token: %w", err)
	}

	if current.SignedToken != presentedToken {
		return nil, ErrTokenMismatch
	}

	claims, err := s.tokenManager.Verify(current.SignedToken)
	if err != nil {
		// Stored token no longer verifies, so it is past its expiry;
		// the ledger check below reports the same thing under lock.
		return nil, ErrCardExpired
	}

	newSigned, newExpiresAt, err := s.tokenManager.Sign(map[string]any(claims))
	if err != nil {
		return nil, fmt.Errorf("failed to re-sign card token: %w", err)
	}

	refreshed, err := s.cardRepo.Refresh(ctx, id, userID, presentedToken, newSigned, newExpiresAt)
	if err != nil {
		return nil, mapLedgerError(err, "refresh")
	}

	return refreshed, nil
}

// ResolveCardToken authenticates a presented card token: signature and
// expiry via the codec, then existence and revocation via the ledger by
// exact string match. A decodable token whose string is not the stored
// one (a superseded pre-refresh copy, for instance) resolves to
// nothing. Ledger expires_at is deliberately not consulted here; the
// codec exp is the single time authority for authentication.
func (s *cardService) ResolveCardToken(ctx context.Context, tokenString string) (*CardIdentity, error) {
	claims, err := s.tokenManager.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	if s.revocations != nil {
		if revoked, err := s.revocations.IsRevoked(ctx, tokenString); err == nil && revoked {
			return nil, ErrTokenRevoked
		}
	}

	cardToken, err := s.cardRepo.GetBySignedToken(ctx, tokenString)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, fmt.Errorf("failed to look up card token: %w", err)
	}

	if cardToken.IsRevoked {
		return nil, ErrTokenRevoked
	}

	return &CardIdentity{
		Token:  cardToken,
		Claims: claims,
		Scope:  cardToken.Scope,
	}, nil
}

// SweepExpired removes expired ledger rows. Run once at startup as
// storage hygiene.
func (s *cardService) SweepExpired(ctx context.Context) (int64, error) {
	return s.cardRepo.DeleteExpired(ctx)
}

func mapLedgerError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrTokenMismatch):
		return ErrTokenMismatch
	case errors.Is(err, repository.ErrAlreadyRevoked):
		return ErrAlreadyRevoked
	case errors.Is(err, repository.ErrTokenExpired):
		return ErrCardExpired
	}
	return fmt.Errorf("failed to %s card token: %w", op, err)
}
