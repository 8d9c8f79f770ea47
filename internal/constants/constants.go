package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// API endpoints.
const (
	// DefaultAPIEndpoint is the public Planning Center API host.
	DefaultAPIEndpoint = "https://api.planningcenteronline.com"

	// DefaultTokenURL is the OAuth2 token endpoint used for refresh grants.
	DefaultTokenURL = DefaultAPIEndpoint + "/oauth/token"

	// JSONAPIContentType is the media type of JSON:API documents.
	JSONAPIContentType = "application/vnd.api+json"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "pco-client-go"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits for transient transport failures (5xx, connection errors).
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// Rate limiting.
const (
	// DefaultRetryAfter is used when a 429 response carries no usable Retry-After header.
	DefaultRetryAfter = 1 * time.Second

	// HeaderRequestID carries a client generated request id.
	HeaderRequestID = "X-Request-Id"
)

// Page sizes.
const (
	// DefaultPageSize is the page size used by the CLI when none is given.
	DefaultPageSize = 25

	// MaxPageSize is the largest page size the API accepts.
	MaxPageSize = 100
)

// Output formats.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTOML for TOML output format.
	FormatTOML = "toml"

	// FormatTable for table output format.
	FormatTable = "table"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// StringTruncationLength is the default length for truncating strings.
	StringTruncationLength = 60

	// MinimumArgumentCount is the argument count of KEY VALUE commands.
	MinimumArgumentCount = 2
)

// Export sinks.
const (
	// SinkSQLite selects the SQLite export sink.
	SinkSQLite = "sqlite"

	// SinkNATS selects the NATS export sink.
	SinkNATS = "nats"

	// DefaultNATSSubject is used when a NATS sink URL carries no subject.
	DefaultNATSSubject = "pco.records"

	// NATSFlushTimeout bounds the final flush of a NATS sink.
	NATSFlushTimeout = 5 * time.Second
)
