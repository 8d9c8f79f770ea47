package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/fivetwenty-io/pco-client/internal/auth"
	"github.com/fivetwenty-io/pco-client/internal/constants"
	"github.com/fivetwenty-io/pco-client/internal/http"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// Static errors for err113 compliance.
var (
	ErrAPIEndpointRequired      = errors.New("API endpoint is required")
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Connection implements pco.Getter on top of the HTTP client.
type Connection struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       pco.Logger
}

// createTokenManager creates appropriate token manager based on config.
// Basic credentials take precedence and need no token manager.
func createTokenManager(config *pco.Config) auth.TokenManager {
	if config.AppID != "" && config.Secret != "" {
		return nil
	}

	if config.RefreshToken != "" || (config.ClientID != "" && config.ClientSecret != "") {
		return auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			TokenURL:     getTokenURL(config),
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RefreshToken: config.RefreshToken,
			AccessToken:  config.AccessToken,
			Scopes:       auth.DefaultScopes,
		})
	}

	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	return nil
}

// getTokenURL returns token URL from config or the Planning Center default.
func getTokenURL(config *pco.Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	return constants.DefaultTokenURL
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *pco.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.AppID != "" && config.Secret != "" {
		httpOpts = append(httpOpts, http.WithBasicAuth(config.AppID, config.Secret))
	}

	if config.RequestsPerSecond > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(config.RequestsPerSecond))
	}

	if config.Tracing {
		httpOpts = append(httpOpts, http.WithTracing())
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.ExtendedRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a connection. When an OAuth2 refresh flow is configured
// without an access token, the first token is fetched eagerly so bad
// credentials fail here rather than on the first request.
func New(ctx context.Context, config *pco.Config) (*Connection, error) {
	tokenManager := createTokenManager(config)

	conn, err := NewWithTokenManager(config, tokenManager)
	if err != nil {
		return nil, err
	}

	if _, isOAuth := tokenManager.(*auth.OAuth2TokenManager); isOAuth && config.AccessToken == "" {
		_, err = tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain access token: %w", err)
		}
	}

	return conn, nil
}

// NewWithTokenManager creates a connection with a custom token manager.
// Extra options are applied after those derived from config.
func NewWithTokenManager(config *pco.Config, tokenManager auth.TokenManager, extra ...http.Option) (*Connection, error) {
	if config.APIEndpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	logger := config.Logger
	if logger == nil {
		logger = pco.NopLogger()
	}

	return &Connection{
		httpClient:   http.NewClient(config.APIEndpoint, tokenManager, append(createHTTPClientOptions(config), extra...)...),
		tokenManager: tokenManager,
		baseURL:      config.APIEndpoint,
		logger:       logger,
	}, nil
}

// Get fetches path and parses the JSON:API document.
func (c *Connection) Get(ctx context.Context, path string, query url.Values) (*pco.Document, error) {
	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	doc, err := pco.ParseDocument(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}

	return doc, nil
}

// BaseURL returns the API endpoint.
func (c *Connection) BaseURL() string {
	return c.baseURL
}

// Logger returns the configured logger.
func (c *Connection) Logger() pco.Logger {
	return c.logger
}

// GetTokenManager returns the token manager, or nil for basic auth.
func (c *Connection) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// GetToken returns the current access token.
func (c *Connection) GetToken(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", ErrNoTokenManagerConfigured
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// TokenExpiry reports when the current OAuth2 token expires, if known.
func (c *Connection) TokenExpiry() (time.Time, bool) {
	manager, ok := c.tokenManager.(*auth.OAuth2TokenManager)
	if !ok || manager.Current() == nil || manager.Current().ExpiresAt.IsZero() {
		return time.Time{}, false
	}

	return manager.Current().ExpiresAt, true
}
