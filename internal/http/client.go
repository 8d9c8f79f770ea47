package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/pco-client/internal/auth"
	"github.com/fivetwenty-io/pco-client/internal/constants"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// Logger is the logging interface used by the transport.
type Logger = pco.Logger

// Client is a GET-oriented HTTP client for JSON:API endpoints.
type Client struct {
	baseURL      *url.URL
	httpClient   *retryablehttp.Client
	tokenManager auth.TokenManager
	basic        *auth.BasicCredentials
	logger       Logger
	debug        bool
	userAgent    string
	limiter      *rate.Limiter
	retryAfter   time.Duration
	newRequestID func() string
}

// Request describes one HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets the retry bounds for 5xx responses and connection errors.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithBasicAuth authenticates with a personal access token.
func WithBasicAuth(appID, secret string) Option {
	return func(c *Client) {
		c.basic = &auth.BasicCredentials{AppID: appID, Secret: secret}
	}
}

// WithRateLimit throttles outgoing requests to rps per second. Zero or less
// disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil

			return
		}

		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithTracing wraps the transport with OpenTelemetry instrumentation.
func WithTracing() Option {
	return func(c *Client) {
		base := c.httpClient.HTTPClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}

		c.httpClient.HTTPClient.Transport = otelhttp.NewTransport(base,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Transport = transport
	}
}

// WithRetryAfterFallback sets the wait reported for a 429 response that
// carries no usable Retry-After header.
func WithRetryAfterFallback(d time.Duration) Option {
	return func(c *Client) {
		c.retryAfter = d
	}
}

// WithRequestIDs overrides the X-Request-Id generator.
func WithRequestIDs(next func() string) Option {
	return func(c *Client) {
		c.newRequestID = next
	}
}

// NewClient creates a client for baseURL. tokenManager may be nil when
// basic auth is used or no authentication is needed.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		parsed = &url.URL{Scheme: "https", Host: baseURL}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      parsed,
		httpClient:   retryClient,
		tokenManager: tokenManager,
		logger:       pco.NopLogger(),
		userAgent:    constants.DefaultUserAgent,
		retryAfter:   constants.DefaultRetryAfter,
		newRequestID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(client)
	}

	retryClient.RequestLogHook = client.logRetry

	return client
}

// checkRetry retries connection errors and 5xx responses. A 429 is left to
// the caller, which knows how long the server asked it to wait.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, ctx.Err()
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (c *Client) logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	c.logger.Warn("Retrying HTTP request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"attempt": attempt,
	})
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Do performs the request. On a non-success status both the response and an
// error are returned: *pco.TooManyRequestsError for 429 and
// *pco.ResponseError otherwise. A 401 with a token manager triggers one
// token refresh and retry.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.do(ctx, req)
	if resp == nil || resp.StatusCode != http.StatusUnauthorized || c.tokenManager == nil || c.basic != nil {
		return resp, err
	}

	refreshErr := c.tokenManager.RefreshToken(ctx)
	if refreshErr != nil {
		return resp, err
	}

	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":     httpReq.Method,
			"url":        httpReq.URL.String(),
			"request_id": httpReq.Header.Get(constants.HeaderRequestID),
		})
	}

	// Once retries run out on a 5xx the last response comes back with an
	// error; the status is translated below.
	httpResp, err := c.httpClient.Do(httpReq)
	if httpResp == nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":     httpResp.StatusCode,
			"duration":   time.Since(start).String(),
			"bytes":      len(body),
			"request_id": httpReq.Header.Get(constants.HeaderRequestID),
		})
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return resp, pco.NewTooManyRequestsError(httpResp.Header, c.retryAfter)
	case httpResp.StatusCode >= http.StatusBadRequest:
		return resp, pco.ParseResponseError(httpResp.StatusCode, body)
	}

	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, req *Request) (*retryablehttp.Request, error) {
	target := c.baseURL.JoinPath(strings.TrimPrefix(req.Path, "/"))
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", constants.JSONAPIContentType)
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(constants.HeaderRequestID, c.newRequestID())

	err = c.authorize(ctx, httpReq)
	if err != nil {
		return nil, err
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

func (c *Client) authorize(ctx context.Context, httpReq *retryablehttp.Request) error {
	switch {
	case c.basic != nil:
		httpReq.SetBasicAuth(c.basic.AppID, c.basic.Secret)
	case c.tokenManager != nil:
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return nil
}
