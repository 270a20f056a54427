// internal/services/auth_service.go
package services

import (
	"context"
	"fmt"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

// AuthService issues bearer tokens for rail accounts. Account management
// lives outside the ledger, so the admin vouches for an account by issuing
// its token.
type AuthService struct {
	ledger *Ledger
	cfg    config.JWTConfig
}

type IssueTokenRequest struct {
	Account string `json:"account" validate:"required,account"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	Account      models.AccountID `json:"account"`
	Role         string           `json:"role"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"` // in seconds
}

func NewAuthService(ledger *Ledger, cfg config.JWTConfig) *AuthService {
	return &AuthService{
		ledger: ledger,
		cfg:    cfg,
	}
}

func (s *AuthService) IssueToken(ctx context.Context, caller models.AccountID, req *IssueTokenRequest) (*AuthResponse, error) {
	if !s.ledger.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	return s.GenerateTokens(req.Account)
}

func (s *AuthService) RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Validate refresh token
	account, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %v: %w", err, ErrUnauthorized)
	}
	return s.GenerateTokens(account)
}

func (s *AuthService) RoleOf(account models.AccountID) string {
	if s.ledger.IsAdmin(account) {
		return utils.RoleAdmin
	}
	return utils.RoleAccount
}

// GenerateTokens signs a fresh access/refresh pair for account.
func (s *AuthService) GenerateTokens(account models.AccountID) (*AuthResponse, error) {
	role := s.RoleOf(account)

	accessToken, err := utils.GenerateJWT(account, role, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(account, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		Account:      account,
		Role:         role,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.AccessTokenTTL * 3600,
	}, nil
}
