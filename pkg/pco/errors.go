package pco

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError represents one JSON:API error object returned by the API.
type APIError struct {
	ID     string `json:"id,omitempty"     yaml:"id,omitempty"`
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
	Code   string `json:"code,omitempty"   yaml:"code,omitempty"`
	Title  string `json:"title,omitempty"  yaml:"title,omitempty"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Detail != "" && e.Title != "":
		return fmt.Sprintf("%s: %s (status: %s)", e.Title, e.Detail, e.Status)
	case e.Title != "":
		return fmt.Sprintf("%s (status: %s)", e.Title, e.Status)
	default:
		return fmt.Sprintf("%s (status: %s)", e.Detail, e.Status)
	}
}

// ResponseError is returned for any non-success HTTP status other than 429.
type ResponseError struct {
	StatusCode int        `json:"-"      yaml:"-"`
	Errors     []APIError `json:"errors" yaml:"errors"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	return fmt.Sprintf("multiple errors: %v", e.Errors)
}

// FirstError returns the first error or nil.
func (e *ResponseError) FirstError() *APIError {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

// Rate limit response headers.
const (
	HeaderRetryAfter = "Retry-After"
	HeaderRateLimit  = "X-PCO-API-Request-Rate-Limit"
	HeaderRateCount  = "X-PCO-API-Request-Rate-Count"
	HeaderRatePeriod = "X-PCO-API-Request-Rate-Period"
)

// TooManyRequestsError signals an HTTP 429 response.
type TooManyRequestsError struct {
	RetryAfter time.Duration
	Limit      int
	Count      int
	Period     time.Duration
}

// Error implements the error interface.
func (e *TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests: retry after %s", e.RetryAfter)
}

// NewTooManyRequestsError builds a rate-limit error from response headers.
// A missing or unparsable Retry-After falls back to fallback.
func NewTooManyRequestsError(header http.Header, fallback time.Duration) *TooManyRequestsError {
	rateErr := &TooManyRequestsError{RetryAfter: fallback}

	if seconds, err := strconv.Atoi(header.Get(HeaderRetryAfter)); err == nil && seconds >= 0 {
		rateErr.RetryAfter = time.Duration(seconds) * time.Second
	}

	if limit, err := strconv.Atoi(header.Get(HeaderRateLimit)); err == nil {
		rateErr.Limit = limit
	}

	if count, err := strconv.Atoi(header.Get(HeaderRateCount)); err == nil {
		rateErr.Count = count
	}

	// The period header reads like "20 seconds" or "20".
	if fields := strings.Fields(header.Get(HeaderRatePeriod)); len(fields) > 0 {
		if period, err := strconv.Atoi(fields[0]); err == nil {
			rateErr.Period = time.Duration(period) * time.Second
		}
	}

	return rateErr
}

// Common static errors that can be wrapped with context.
var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrStopIteration       = errors.New("stop iteration")
	ErrConfigRequired      = errors.New("config is required")
	ErrAPIEndpointRequired = errors.New("API endpoint is required")
	ErrNoHostInURL         = errors.New("no host specified in URL")
	ErrNoConnection        = errors.New("resource type has no connection")
	ErrInvalidRecordID     = errors.New("invalid record id")
	ErrStaticTokenRefresh  = errors.New("static token cannot be refreshed")
	ErrNotAuthenticated    = errors.New("not authenticated")
)

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsTooManyRequests checks if the error is a rate-limit signal and returns it.
func IsTooManyRequests(err error) (*TooManyRequestsError, bool) {
	rateErr := &TooManyRequestsError{}
	if errors.As(err, &rateErr) {
		return rateErr, true
	}

	return nil, false
}

func hasStatus(err error, status int) bool {
	errResp := &ResponseError{}
	if errors.As(err, &errResp) {
		if errResp.StatusCode == status {
			return true
		}

		first := errResp.FirstError()
		if first != nil {
			return first.Status == strconv.Itoa(status)
		}
	}

	return false
}

// ParseResponseError parses an error response from JSON.
func ParseResponseError(statusCode int, data []byte) *ResponseError {
	errResp := &ResponseError{StatusCode: statusCode}

	if len(data) == 0 {
		return errResp
	}

	var body struct {
		Errors []APIError `json:"errors"`
	}

	if json.Unmarshal(data, &body) == nil {
		errResp.Errors = body.Errors
	}

	return errResp
}
