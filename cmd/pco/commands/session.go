package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pco-client/internal/auth"
	"github.com/fivetwenty-io/pco-client/internal/client"
	"github.com/fivetwenty-io/pco-client/internal/constants"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
	"github.com/fivetwenty-io/pco-client/pkg/pco/people"
	"github.com/fivetwenty-io/pco-client/pkg/pcoclient"
)

// session is one command's connection and its supporting pieces.
type session struct {
	conn     pco.Connection
	logger   pco.Logger
	retry    *pco.RetryPolicy
	shutdown func(context.Context) error
}

// Close flushes traces.
func (s *session) Close(ctx context.Context) {
	if s.shutdown != nil {
		_ = s.shutdown(ctx)
	}
}

// resourceType returns a type for an arbitrary collection path.
func (s *session) resourceType(path string) *pco.ResourceType {
	return pco.NewResourceType(pco.ResourceConfig{
		Name:       kindName(path),
		Path:       path,
		Connection: s.conn,
		Logger:     s.logger,
		Retry:      s.retry,
	})
}

func (s *session) catalogue() *people.Catalogue {
	return people.New(s.conn, s.logger, s.retry)
}

// effectiveConfig merges flags, environment and the config file.
func effectiveConfig(logger pco.Logger) *pco.Config {
	return &pco.Config{
		APIEndpoint:       viper.GetString("api"),
		AppID:             viper.GetString("app_id"),
		Secret:            viper.GetString("secret"),
		AccessToken:       viper.GetString("token"),
		RefreshToken:      viper.GetString("refresh_token"),
		ClientID:          viper.GetString("client_id"),
		ClientSecret:      viper.GetString("client_secret"),
		TokenURL:          viper.GetString("token_url"),
		RequestsPerSecond: viper.GetFloat64("requests_per_second"),
		Debug:             viper.GetBool("verbose"),
		Tracing:           viper.GetBool("trace"),
		Logger:            logger,
	}
}

func newSession(ctx context.Context) (*session, error) {
	logger := NewStderrLogger(os.Stderr, viper.GetBool("verbose"))
	s := &session{
		logger: logger,
		retry:  &pco.RetryPolicy{Logger: logger, MinWait: constants.DefaultRetryAfter},
	}

	if viper.GetBool("trace") {
		shutdown, err := initTracer(os.Stderr)
		if err != nil {
			return nil, err
		}

		s.shutdown = shutdown
	}

	config := effectiveConfig(logger)

	conn, err := connect(ctx, config)
	if err != nil {
		s.Close(ctx)

		return nil, err
	}

	s.conn = conn

	return s, nil
}

// connect uses a persisting token manager when a refresh token is
// configured so rotated tokens are written back to the config file.
func connect(ctx context.Context, config *pco.Config) (pco.Connection, error) {
	if config.RefreshToken == "" || (config.AppID != "" && config.Secret != "") {
		return pcoclient.New(ctx, config)
	}

	endpoint, err := pcoclient.NormalizeEndpoint(config.APIEndpoint)
	if err != nil {
		return nil, err
	}

	config.APIEndpoint = endpoint

	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = endpoint + "/oauth/token"
	}

	var expiry time.Time
	if expiresAt := viper.GetTime("token_expires_at"); !expiresAt.IsZero() {
		expiry = expiresAt
	}

	tokenManager := auth.NewConfigTokenManager(&auth.OAuth2Config{
		TokenURL:     tokenURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RefreshToken: config.RefreshToken,
		AccessToken:  config.AccessToken,
		Scopes:       auth.DefaultScopes,
	}, NewConfigPersister(), expiry, config.Logger.Warn)

	conn, err := client.NewWithTokenManager(config, tokenManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	return conn, nil
}

// verifyCredentials fetches the authenticated person.
func verifyCredentials(ctx context.Context, appID, secret string) error {
	conn, err := pcoclient.NewWithPersonalAccessToken(ctx, viper.GetString("api"), appID, secret)
	if err != nil {
		return err
	}

	_, err = conn.Get(ctx, people.BasePath+"/me", nil)
	if err != nil {
		return fmt.Errorf("verifying credentials: %w", err)
	}

	return nil
}
