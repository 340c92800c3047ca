package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alejob60/meta-agent/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(t *testing.T, wantTenant string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := GetTenantID(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantTenant, tenantID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	jwtManager := security.NewJWTManager("test-secret", time.Hour)
	mw := NewAuthMiddleware(jwtManager)

	token, err := jwtManager.GenerateAccessToken("tenant-a", "Zapateria Luna")
	require.NoError(t, err)

	t.Run("valid token passes tenant through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v2/agents/meta-agent/process", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.Authenticate(okHandler(t, "tenant-a")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v2/agents/meta-agent/process", nil)
		rec := httptest.NewRecorder()

		mw.Authenticate(okHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v2/agents/meta-agent/process", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		mw.Authenticate(okHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with other secret rejected", func(t *testing.T) {
		other := security.NewJWTManager("other-secret", time.Hour)
		badToken, err := other.GenerateAccessToken("tenant-a", "")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v2/agents/meta-agent/process", nil)
		req.Header.Set("Authorization", "Bearer "+badToken)
		rec := httptest.NewRecorder()

		mw.Authenticate(okHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (l *stubLimiter) Allow(context.Context, string) (bool, error) {
	return l.allowed, l.err
}

func TestRateLimit(t *testing.T) {
	pass := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	withTenant := func(req *http.Request) *http.Request {
		ctx := context.WithValue(req.Context(), TenantIDKey, "tenant-a")
		return req.WithContext(ctx)
	}

	t.Run("within limit passes", func(t *testing.T) {
		mw := NewRateLimitMiddleware(&stubLimiter{allowed: true})
		req := withTenant(httptest.NewRequest(http.MethodPost, "/", nil))
		rec := httptest.NewRecorder()

		mw.Limit(pass).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("over limit gets 429", func(t *testing.T) {
		mw := NewRateLimitMiddleware(&stubLimiter{allowed: false})
		req := withTenant(httptest.NewRequest(http.MethodPost, "/", nil))
		rec := httptest.NewRecorder()

		mw.Limit(pass).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("limiter failure lets request through", func(t *testing.T) {
		mw := NewRateLimitMiddleware(&stubLimiter{err: errors.New("redis down")})
		req := withTenant(httptest.NewRequest(http.MethodPost, "/", nil))
		rec := httptest.NewRecorder()

		mw.Limit(pass).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no tenant in context rejected", func(t *testing.T) {
		mw := NewRateLimitMiddleware(&stubLimiter{allowed: true})
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()

		mw.Limit(pass).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
