package constants

import "errors"

// Configuration errors.
var (
	ErrNoCredentials       = errors.New("no credentials configured, use 'pco config set app_id' and 'pco config set secret' or --token")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidOutputFormat = errors.New("invalid output format")
)

// Argument errors.
var (
	ErrInvalidFilter   = errors.New("invalid filter, expected key=value")
	ErrInvalidSink     = errors.New("invalid sink, expected sqlite:FILE or nats:URL#SUBJECT")
	ErrUnsupportedSink = errors.New("unsupported sink type")
	ErrInvalidPerPage  = errors.New("per-page must be between 0 and 100")
)
