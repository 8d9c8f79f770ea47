package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pco-client/internal/auth"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

func TestToken_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    *auth.Token
		expected bool
	}{
		{name: "nil token", token: nil, expected: false},
		{name: "empty access token", token: &auth.Token{}, expected: false},
		{name: "valid token without expiry", token: &auth.Token{AccessToken: "t"}, expected: true},
		{name: "valid token with future expiry", token: &auth.Token{AccessToken: "t", ExpiresAt: time.Now().Add(time.Hour)}, expected: true},
		{name: "expired token", token: &auth.Token{AccessToken: "t", ExpiresAt: time.Now().Add(-time.Hour)}, expected: false},
		{name: "token expiring within buffer", token: &auth.Token{AccessToken: "t", ExpiresAt: time.Now().Add(15 * time.Second)}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.token.Valid())
		})
	}
}

func TestTokenStore(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	assert.Nil(t, store.Get())

	var wg sync.WaitGroup

	for _, value := range []string{"token-1", "token-2"} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				store.Set(&auth.Token{AccessToken: value})
				_ = store.Get()
			}
		}()
	}

	wg.Wait()

	final := store.Get()
	require.NotNil(t, final)
	assert.Contains(t, []string{"token-1", "token-2"}, final.AccessToken)

	store.Clear()
	assert.Nil(t, store.Get())
}

func TestStaticTokenManager(t *testing.T) {
	t.Parallel()

	manager := auth.NewStaticTokenManager("abc")

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.ErrorIs(t, manager.RefreshToken(context.Background()), pco.ErrStaticTokenRefresh)

	manager.SetToken("", time.Time{})
	_, err = manager.GetToken(context.Background())
	require.ErrorIs(t, err, pco.ErrNotAuthenticated)
}

func TestBasicCredentials_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, auth.BasicCredentials{AppID: "id", Secret: "secret"}.Valid())
	assert.False(t, auth.BasicCredentials{AppID: "id"}.Valid())
}
