package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaultgate/card-token-service/internal/domain"
	"github.com/vaultgate/card-token-service/internal/dto"
	"github.com/vaultgate/card-token-service/internal/repository"
	"github.com/vaultgate/card-token-service/internal/token"
	"github.com/vaultgate/card-token-service/internal/utils"
)

// authService implements AuthService interface
type authService struct {
	userRepo     repository.UserRepository
	tokenManager *token.Manager
	bcryptCost   int
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, tokenManager *token.Manager, bcryptCost int) AuthService {
	return &authService{
		userRepo:     userRepo,
		tokenManager: tokenManager,
		bcryptCost:   bcryptCost,
	}
}

// Signup registers a new account
func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*domain.User, error) {
	email := utils.SanitizeEmail(req.Email)

	if !utils.ValidateEmail(email) {
		return nil, ErrInvalidEmail
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates an account and mints a user token with claims
// {sub, email}. Every failure mode collapses to ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// Best effort; a failed timestamp write must not fail the login.
	_ = s.userRepo.UpdateLastLogin(ctx, user.ID)

	accessToken, _, err := s.tokenManager.Sign(map[string]any{
		token.ClaimSubject: user.ID,
		"email":            user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign user token: %w", err)
	}

	return &dto.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		UserID:      user.ID,
		ExpiresIn:   s.tokenManager.ExpirySeconds(),
	}, nil
}

// ResolveUserToken verifies a user token and confirms the subject
// still exists. Covers users deleted after token issuance.
func (s *authService) ResolveUserToken(ctx context.Context, tokenString string) (*UserIdentity, error) {
	claims, err := s.tokenManager.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	sub, ok := claims[token.ClaimSubject].(string)
	if !ok || sub == "" {
		return nil, ErrMissingSubject
	}

	user, err := s.userRepo.GetByID(ctx, sub)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &UserIdentity{
		UserID: user.ID,
		Email:  user.Email,
	}, nil
}
