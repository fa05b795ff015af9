package repository

import (
	"context"
	"time"

	"github.com/vaultgate/card-token-service/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

// CardTokenRepository defines methods over the card token ledger.
// Revoke, Refresh and Delete serialize against each other per row:
// each runs in a transaction that locks the row before checking state,
// so a racing pair resolves to one winner and the loser observes the
// committed post-mutation state.
type CardTokenRepository interface {
	Create(ctx context.Context, token *domain.CardToken) error
	GetBySignedToken(ctx context.Context, signedToken string) (*domain.CardToken, error)
	GetByID(ctx context.Context, id, userID string) (*domain.CardToken, error)
	ListActive(ctx context.Context, userID string) ([]*domain.CardToken, error)
	Revoke(ctx context.Context, id, userID, presentedToken string) (*domain.CardToken, error)
	Refresh(ctx context.Context, id, userID, presentedToken, newSignedToken string, newExpiresAt time.Time) (*domain.CardToken, error)
	Delete(ctx context.Context, id, userID, presentedToken string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
