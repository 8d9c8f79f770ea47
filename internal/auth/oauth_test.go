package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, check func(r *http.Request), status int, body interface{}) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		if check != nil {
			check(r)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestOAuth2TokenManager_GetToken(t *testing.T) {
	t.Parallel()

	t.Run("returns existing valid token", func(t *testing.T) {
		t.Parallel()

		manager := NewOAuth2TokenManager(&OAuth2Config{AccessToken: "existing-token"})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "existing-token", token)
	})

	t.Run("refreshes expired token using refresh token", func(t *testing.T) {
		t.Parallel()

		server := tokenServer(t, func(r *http.Request) {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
			assert.Equal(t, "old-refresh-token", r.Form.Get("refresh_token"))
		}, http.StatusOK, map[string]interface{}{
			"access_token":  "new-access-token",
			"refresh_token": "new-refresh-token",
			"expires_in":    7200,
			"token_type":    "bearer",
		})
		defer server.Close()

		manager := NewPCOTokenManager(server.URL+"/oauth/token/", "client-id", "client-secret", "old-refresh-token")
		manager.store.Set(&Token{
			AccessToken:  "expired-token",
			RefreshToken: "old-refresh-token",
			ExpiresAt:    time.Now().Add(-time.Hour),
		})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "new-access-token", token)
		assert.Equal(t, "new-refresh-token", manager.Current().RefreshToken)
		assert.Equal(t, DefaultScopes, manager.config.Scopes)
	})

	t.Run("uses client credentials when no refresh token", func(t *testing.T) {
		t.Parallel()

		server := tokenServer(t, func(r *http.Request) {
			username, password, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "client-id", username)
			assert.Equal(t, "client-secret", password)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		}, http.StatusOK, map[string]interface{}{
			"access_token": "client-token",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
		defer server.Close()

		manager := NewOAuth2TokenManager(&OAuth2Config{
			TokenURL:     server.URL + "/oauth/token",
			ClientID:     "client-id",
			ClientSecret: "client-secret",
		})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "client-token", token)
	})

	t.Run("uses password grant", func(t *testing.T) {
		t.Parallel()

		server := tokenServer(t, func(r *http.Request) {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "password", r.Form.Get("grant_type"))
			assert.Equal(t, "testuser", r.Form.Get("username"))
			assert.Equal(t, "testpass", r.Form.Get("password"))
		}, http.StatusOK, map[string]interface{}{
			"access_token": "password-token",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
		defer server.Close()

		manager := NewOAuth2TokenManager(&OAuth2Config{
			TokenURL: server.URL + "/oauth/token",
			Username: "testuser",
			Password: "testpass",
		})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "password-token", token)
	})

	t.Run("handles token request error", func(t *testing.T) {
		t.Parallel()

		server := tokenServer(t, nil, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_client",
			"error_description": "Client authentication failed",
		})
		defer server.Close()

		manager := NewOAuth2TokenManager(&OAuth2Config{
			TokenURL:     server.URL + "/oauth/token",
			ClientID:     "bad-client",
			ClientSecret: "bad-secret",
		})

		token, err := manager.GetToken(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid_client")
		assert.Empty(t, token)
	})

	t.Run("no credentials available", func(t *testing.T) {
		t.Parallel()

		manager := NewOAuth2TokenManager(&OAuth2Config{TokenURL: "http://example.com/oauth/token"})

		token, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, ErrNoCredentials)
		assert.Empty(t, token)
	})
}

func TestOAuth2TokenManager_SetToken(t *testing.T) {
	t.Parallel()

	manager := NewOAuth2TokenManager(&OAuth2Config{RefreshToken: "keep-me"})

	expiresAt := time.Now().Add(time.Hour)
	manager.SetToken("manual-token", expiresAt)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manual-token", token)

	stored := manager.store.Get()
	assert.Equal(t, "bearer", stored.TokenType)
	assert.Equal(t, "keep-me", stored.RefreshToken)
	assert.Equal(t, expiresAt.Unix(), stored.ExpiresAt.Unix())
}

type memoryPersister struct {
	token   string
	refresh string
	calls   int
}

func (p *memoryPersister) UpdateToken(token string, _ time.Time, refreshToken string) error {
	p.token = token
	p.refresh = refreshToken
	p.calls++

	return nil
}

func TestConfigTokenManager_PersistsRefreshedToken(t *testing.T) {
	t.Parallel()

	server := tokenServer(t, nil, http.StatusOK, map[string]interface{}{
		"access_token":  "rotated",
		"refresh_token": "rotated-refresh",
		"expires_in":    7200,
		"token_type":    "bearer",
	})
	defer server.Close()

	persister := &memoryPersister{}
	manager := NewConfigTokenManager(&OAuth2Config{
		TokenURL:     server.URL + "/oauth/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AccessToken:  "stale",
		RefreshToken: "refresh",
	}, persister, time.Now().Add(-time.Minute), nil)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated", token)
	assert.Equal(t, "rotated", persister.token)
	assert.Equal(t, "rotated-refresh", persister.refresh)

	_, err = manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, persister.calls)
	assert.False(t, manager.GetTokenExpiry().IsZero())
}
