package service

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vaultgate/card-token-service/internal/domain"
	"github.com/vaultgate/card-token-service/internal/dto"
)

// UserIdentity is the result of resolving a user token
type UserIdentity struct {
	UserID string
	Email  string
}

// CardIdentity is the result of resolving a card token: its verified
// claims, the owning user and the scope fixed at issuance.
type CardIdentity struct {
	Token  *domain.CardToken
	Claims jwt.MapClaims
	Scope  domain.Scope
}

// AuthService defines methods for account operations
type AuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*domain.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	ResolveUserToken(ctx context.Context, tokenString string) (*UserIdentity, error)
}

// CardService defines the card token lifecycle operations
type CardService interface {
	Issue(ctx context.Context, userID string, req *dto.IssueCardRequest) (*domain.CardToken, error)
	ListActive(ctx context.Context, userID string) ([]*domain.CardToken, error)
	GetActive(ctx context.Context, id, userID string) (*domain.CardToken, error)
	Revoke(ctx context.Context, id, userID, presentedToken string) (*domain.CardToken, error)
	Delete(ctx context.Context, id, userID, presentedToken string) error
	Refresh(ctx context.Context, id, userID, presentedToken string) (*domain.CardToken, error)
	ResolveCardToken(ctx context.Context, tokenString string) (*CardIdentity, error)
	SweepExpired(ctx context.Context) (int64, error)
}
