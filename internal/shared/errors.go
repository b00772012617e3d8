package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrHistoryFetch       = fmt.Errorf("failed to fetch listening history")

	// ErrScrobbleRejected marks a failure isolated to a single submission.
	// Anything not wrapping it aborts the run.
	ErrScrobbleRejected = fmt.Errorf("scrobble rejected")

	// Run errors
	ErrRunInProgress = fmt.Errorf("another run is in progress")
	ErrRunNotFound   = fmt.Errorf("run not found")

	// Database errors
	ErrNoMigrations = fmt.Errorf("no migrations to roll back")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
