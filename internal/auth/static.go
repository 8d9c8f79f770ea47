package auth

import (
	"context"
	"time"

	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// StaticTokenManager always returns the same bearer token.
type StaticTokenManager struct {
	token string
}

// NewStaticTokenManager returns a manager for a fixed token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	return &StaticTokenManager{token: token}
}

// GetToken returns the token.
func (m *StaticTokenManager) GetToken(_ context.Context) (string, error) {
	if m.token == "" {
		return "", pco.ErrNotAuthenticated
	}

	return m.token, nil
}

// RefreshToken always fails.
func (m *StaticTokenManager) RefreshToken(_ context.Context) error {
	return pco.ErrStaticTokenRefresh
}

// SetToken replaces the token.
func (m *StaticTokenManager) SetToken(token string, _ time.Time) {
	m.token = token
}

// BasicCredentials is a personal access token: an application id and secret
// sent with HTTP basic auth.
type BasicCredentials struct {
	AppID  string
	Secret string
}

// Valid reports whether both halves are present.
func (c BasicCredentials) Valid() bool {
	return c.AppID != "" && c.Secret != ""
}
