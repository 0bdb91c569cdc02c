package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrMalformedResponse   = fmt.Errorf("malformed response")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound    = fmt.Errorf("playlist not found")
	ErrPlaylistNotCreated  = fmt.Errorf("destination playlist not created")
	ErrMigrationNotFound   = fmt.Errorf("migration not found")
	ErrMigrationInProgress = fmt.Errorf("another migration is running")
	ErrInvalidBatchSize    = fmt.Errorf("batch size must be between 1 and 100")
	ErrUnsupportedStrategy = fmt.Errorf("unsupported pacing strategy")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// StatusError reports a non-2xx response from a catalog API.
//
// Authentication failures (401/403) surface here too; they are not distinguished from other statuses.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Body)
}

// Unwrap lets callers match every StatusError with [ErrAPIRequest].
func (e *StatusError) Unwrap() error {
	return ErrAPIRequest
}
