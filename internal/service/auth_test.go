package service

import (
	"context"
	"testing"
	"time"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/Alejob60/meta-agent/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestExchangeAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sk-tenant-a-key"), bcrypt.MinCost)
	require.NoError(t, err)

	jwtMgr := security.NewJWTManager("test-secret", time.Hour)

	t.Run("valid key issues token", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		tenants.On("Get", mock.Anything, "tenant-a").Return(&domain.Tenant{
			ID: "tenant-a", Name: "Zapateria Luna", APIKeyHash: string(hash), Active: true,
		}, nil)

		svc := NewAuthService(tenants, jwtMgr)
		result, err := svc.ExchangeAPIKey(context.Background(), "tenant-a", "sk-tenant-a-key")
		require.NoError(t, err)
		assert.Equal(t, "Bearer", result.TokenType)

		claims, err := jwtMgr.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "tenant-a", claims.TenantID)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		tenants.On("Get", mock.Anything, "tenant-a").Return(&domain.Tenant{
			ID: "tenant-a", APIKeyHash: string(hash), Active: true,
		}, nil)

		svc := NewAuthService(tenants, jwtMgr)
		_, err := svc.ExchangeAPIKey(context.Background(), "tenant-a", "wrong-key")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive tenant rejected", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		tenants.On("Get", mock.Anything, "tenant-a").Return(&domain.Tenant{
			ID: "tenant-a", APIKeyHash: string(hash), Active: false,
		}, nil)

		svc := NewAuthService(tenants, jwtMgr)
		_, err := svc.ExchangeAPIKey(context.Background(), "tenant-a", "sk-tenant-a-key")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
