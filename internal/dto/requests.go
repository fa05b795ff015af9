package dto

import (
	"time"

	"github.com/vaultgate/card-token-service/internal/domain"
)

// SignupRequest represents an account creation request
type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignupResponse confirms account creation
type SignupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed user token
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	ExpiresIn   int    `json:"expires_in"`
}

// IssueCardRequest represents a card tokenization request. The raw
// card number and CVV live only inside the request; neither is ever
// embedded in a token or persisted.
type IssueCardRequest struct {
	CardNumber     string `json:"card_number" binding:"required"`
	CardholderName string `json:"cardholder_name" binding:"required"`
	ExpiryMonth    int    `json:"expiry_month" binding:"required"`
	ExpiryYear     int    `json:"expiry_year" binding:"required"`
	CVV            string `json:"cvv" binding:"required"`
	Scope          string `json:"scope"`
}

// CardTokenResponse is the external representation of a ledger row
type CardTokenResponse struct {
	ID               string `json:"id"`
	SignedToken      string `json:"signed_token"`
	MaskedCardNumber string `json:"masked_card_number"`
	CardholderName   string `json:"cardholder_name"`
	IsRevoked        bool   `json:"is_revoked"`
	ExpiresAt        string `json:"expires_at"`
	CreatedAt        string `json:"created_at"`
	Scope            string `json:"scope"`
}

// NewCardTokenResponse converts a ledger row, timestamps in ISO-8601 UTC
func NewCardTokenResponse(ct *domain.CardToken) *CardTokenResponse {
	return &CardTokenResponse{
		ID:               ct.ID,
		SignedToken:      ct.SignedToken,
		MaskedCardNumber: ct.MaskedCardNumber,
		CardholderName:   ct.CardholderName,
		IsRevoked:        ct.IsRevoked,
		ExpiresAt:        ct.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:        ct.CreatedAt.UTC().Format(time.RFC3339),
		Scope:            ct.Scope.String(),
	}
}

// NewCardTokenList converts a slice of ledger rows
func NewCardTokenList(tokens []*domain.CardToken) []*CardTokenResponse {
	out := make([]*CardTokenResponse, 0, len(tokens))
	for _, ct := range tokens {
		out = append(out, NewCardTokenResponse(ct))
	}
	return out
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
