package pcoclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gonobo/validator"

	"github.com/fivetwenty-io/pco-client/internal/client"
	"github.com/fivetwenty-io/pco-client/internal/constants"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// New creates a connection to the API described by config. An empty
// endpoint means the public Planning Center API.
func New(ctx context.Context, config *pco.Config) (pco.Connection, error) {
	if config == nil {
		return nil, pco.ErrConfigRequired
	}

	apiEndpoint, err := NormalizeEndpoint(config.APIEndpoint)
	if err != nil {
		return nil, err
	}

	config.APIEndpoint = apiEndpoint

	err = validateConfig(config)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	conn, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new connection: %w", err)
	}

	return conn, nil
}

// NormalizeEndpoint trims a trailing slash and adds "https://" when the
// endpoint has no scheme.
func NormalizeEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return constants.DefaultAPIEndpoint, nil
	}

	apiEndpoint := strings.TrimSuffix(endpoint, "/")
	if !strings.HasPrefix(apiEndpoint, "http://") && !strings.HasPrefix(apiEndpoint, "https://") {
		apiEndpoint = "https://" + apiEndpoint
	}

	parsed, err := url.Parse(apiEndpoint)
	if err != nil {
		return "", fmt.Errorf("parsing API endpoint: %w", err)
	}

	if parsed.Host == "" {
		return "", pco.ErrNoHostInURL
	}

	return apiEndpoint, nil
}

func validateConfig(config *pco.Config) error {
	return validator.Validate(
		validator.All(
			validator.Rule(config.AppID == "" || config.Secret != "", "secret is required with an app id"),
			validator.Rule(config.Secret == "" || config.AppID != "", "app id is required with a secret"),
			validator.Rule(config.ClientID == "" || config.ClientSecret != "", "client secret is required with a client id"),
			validator.Rule(config.RetryMax >= 0, "retry max must not be negative"),
			validator.Rule(config.RequestsPerSecond >= 0, "requests per second must not be negative"),
			validator.Rule(config.HTTPTimeout >= 0, "HTTP timeout must not be negative"),
		),
	)
}

// NewWithEndpoint creates a connection with no authentication.
func NewWithEndpoint(ctx context.Context, endpoint string) (pco.Connection, error) {
	return New(ctx, &pco.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithToken creates a connection using an OAuth2 access token.
func NewWithToken(ctx context.Context, endpoint, token string) (pco.Connection, error) {
	return New(ctx, &pco.Config{
		APIEndpoint: endpoint,
		AccessToken: token,
	})
}

// NewWithPersonalAccessToken creates a connection using a personal access
// token (application id and secret).
func NewWithPersonalAccessToken(ctx context.Context, endpoint, appID, secret string) (pco.Connection, error) {
	return New(ctx, &pco.Config{
		APIEndpoint: endpoint,
		AppID:       appID,
		Secret:      secret,
	})
}
