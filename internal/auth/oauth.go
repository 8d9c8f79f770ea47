package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNoCredentials is returned when no grant can be attempted.
var ErrNoCredentials = errors.New("no valid credentials available")

// DefaultScopes requested from the Planning Center authorization server.
var DefaultScopes = []string{"people"}

// OAuth2Config configures an OAuth2TokenManager.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
	Username     string
	Password     string
	Scopes       []string
	HTTPClient   *http.Client
}

// OAuth2TokenManager keeps an access token fresh using, in order of
// preference, the refresh token, the password grant or client credentials.
type OAuth2TokenManager struct {
	config *OAuth2Config
	store  *TokenStore
	mutex  sync.Mutex
}

// NewOAuth2TokenManager creates a manager. An AccessToken in config seeds
// the store without an expiry.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: config,
		store:  NewTokenStore(),
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			TokenType:    "bearer",
			RefreshToken: config.RefreshToken,
		})
	}

	return manager
}

// NewPCOTokenManager creates a manager for a Planning Center OAuth
// application holding a refresh token.
func NewPCOTokenManager(tokenURL, clientID, clientSecret, refreshToken string) *OAuth2TokenManager {
	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     strings.TrimSuffix(tokenURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
		Scopes:       DefaultScopes,
	})
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.RefreshToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken obtains a new token from the token endpoint.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.config.HTTPClient)
	}

	token, err := m.fetch(ctx)
	if err != nil {
		return err
	}

	m.store.Set(fromOAuth2(token))

	return nil
}

// SetToken manually sets the access token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	refresh := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refresh = current.RefreshToken
	}

	m.store.Set(&Token{
		AccessToken:  token,
		TokenType:    "bearer",
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	})
}

// Current returns the stored token, or nil.
func (m *OAuth2TokenManager) Current() *Token {
	return m.store.Get()
}

func (m *OAuth2TokenManager) fetch(ctx context.Context) (*oauth2.Token, error) {
	cfg := &oauth2.Config{
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: m.config.TokenURL},
		Scopes:       m.config.Scopes,
	}

	refresh := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refresh = current.RefreshToken
	}

	var (
		token *oauth2.Token
		err   error
	)

	switch {
	case refresh != "":
		token, err = cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh, Expiry: time.Unix(1, 0)}).Token()
	case m.config.Username != "" && m.config.Password != "":
		token, err = cfg.PasswordCredentialsToken(ctx, m.config.Username, m.config.Password)
	case m.config.ClientID != "" && m.config.ClientSecret != "":
		cc := &clientcredentials.Config{
			ClientID:     m.config.ClientID,
			ClientSecret: m.config.ClientSecret,
			TokenURL:     m.config.TokenURL,
			Scopes:       m.config.Scopes,
		}
		token, err = cc.Token(ctx)
	default:
		return nil, ErrNoCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}

	if token.RefreshToken == "" {
		token.RefreshToken = refresh
	}

	return token, nil
}

func fromOAuth2(token *oauth2.Token) *Token {
	out := &Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		ExpiresIn:    int(token.ExpiresIn),
	}

	if out.TokenType == "" {
		out.TokenType = "bearer"
	}

	return out
}
