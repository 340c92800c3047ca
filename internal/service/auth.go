package service

import (
	"context"
	"errors"
	"time"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/Alejob60/meta-agent/internal/security"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a bad tenant ID or API key.
// The two cases are indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService exchanges tenant API keys for scoped access tokens
type AuthService struct {
	tenants domain.TenantRepository
	jwt     *security.JWTManager
}

// NewAuthService creates an auth service
func NewAuthService(tenants domain.TenantRepository, jwt *security.JWTManager) *AuthService {
	return &AuthService{tenants: tenants, jwt: jwt}
}

// TokenResult is a freshly issued access token
type TokenResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExchangeAPIKey verifies the tenant's API key and issues a JWT
func (s *AuthService) ExchangeAPIKey(ctx context.Context, tenantID, apiKey string) (*TokenResult, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !tenant.Active {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.APIKeyHash), []byte(apiKey)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(tenant.ID, tenant.Name)
	if err != nil {
		return nil, err
	}

	return &TokenResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(s.jwt.AccessTokenTTL()),
	}, nil
}
