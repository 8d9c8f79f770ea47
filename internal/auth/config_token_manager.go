package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister defines the interface for persisting config changes.
type ConfigPersister interface {
	UpdateToken(token string, expiresAt time.Time, refreshToken string) error
}

// WarnFunc reports a non-fatal problem.
type WarnFunc func(msg string, fields map[string]interface{})

// ConfigTokenManager wraps OAuth2TokenManager and writes every new token
// back through a ConfigPersister, so a rotated refresh token survives the
// process.
type ConfigTokenManager struct {
	oauth2Manager   *OAuth2TokenManager
	configPersister ConfigPersister
	warn            WarnFunc
	mutex           sync.Mutex
	lastToken       string
	lastExpiry      time.Time
}

// NewConfigTokenManager creates a new config-persisting token manager.
func NewConfigTokenManager(config *OAuth2Config, configPersister ConfigPersister, initialExpiry time.Time, warn WarnFunc) *ConfigTokenManager {
	oauth2Manager := NewOAuth2TokenManager(config)

	if config.AccessToken != "" {
		oauth2Manager.SetToken(config.AccessToken, initialExpiry)
	}

	if warn == nil {
		warn = func(string, map[string]interface{}) {}
	}

	return &ConfigTokenManager{
		oauth2Manager:   oauth2Manager,
		configPersister: configPersister,
		warn:            warn,
		lastToken:       config.AccessToken,
		lastExpiry:      initialExpiry,
	}
}

// GetToken returns a valid access token, refreshing and persisting if necessary.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token, err := m.oauth2Manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	m.persistIfChanged()

	return token, nil
}

// RefreshToken forces a token refresh.
func (m *ConfigTokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	err := m.oauth2Manager.RefreshToken(ctx)
	if err != nil {
		return err
	}

	m.persistIfChanged()

	return nil
}

// SetToken manually sets the access token.
func (m *ConfigTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.oauth2Manager.SetToken(token, expiresAt)
	m.lastToken = token
	m.lastExpiry = expiresAt
}

// GetTokenExpiry returns the current token's expiration time.
func (m *ConfigTokenManager) GetTokenExpiry() time.Time {
	token := m.oauth2Manager.Current()
	if token == nil {
		return time.Time{}
	}

	return token.ExpiresAt
}

func (m *ConfigTokenManager) persistIfChanged() {
	current := m.oauth2Manager.Current()
	if current == nil || (current.AccessToken == m.lastToken && current.ExpiresAt.Equal(m.lastExpiry)) {
		return
	}

	err := m.persistToken(current)
	if err != nil {
		m.warn("Failed to persist refreshed token", map[string]interface{}{"error": err.Error()})
	}

	m.lastToken = current.AccessToken
	m.lastExpiry = current.ExpiresAt
}

func (m *ConfigTokenManager) persistToken(token *Token) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.UpdateToken(token.AccessToken, token.ExpiresAt, token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}

	return nil
}
