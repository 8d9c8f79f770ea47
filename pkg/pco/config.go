package pco

import "time"

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

// Config represents client configuration for building a connection.
type Config struct {
	// APIEndpoint: base URL of the API (e.g., "https://api.planningcenteronline.com").
	// pcoclient.New trims a trailing slash and adds "https://" when no scheme
	// is present. Empty means the public Planning Center endpoint.
	APIEndpoint string

	// Authentication options (provide one)
	// AppID and Secret: personal access token pair, sent with HTTP basic auth.
	AppID  string
	Secret string
	// AccessToken: OAuth2 bearer token. Used directly unless RefreshToken is
	// also set, in which case it seeds the refreshing token source.
	AccessToken string
	// RefreshToken, ClientID, ClientSecret: OAuth2 refresh flow credentials.
	RefreshToken string
	ClientID     string
	ClientSecret string
	// TokenURL: OAuth2 token endpoint. Defaults to the Planning Center one.
	TokenURL string

	// Optional configurations
	// HTTPTimeout: per-request timeout of the underlying http.Client.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for 5xx responses and connection
	// errors. Rate-limited responses are retried by the collection proxy.
	RetryMax int
	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RequestsPerSecond: client-side throttle. Zero disables throttling.
	RequestsPerSecond float64
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and the proxy.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// Tracing: wraps the transport with OpenTelemetry instrumentation using
	// the global tracer provider.
	Tracing bool
}
