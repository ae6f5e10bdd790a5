package apiclient

import "errors"

// Sentinel errors mapped from backend responses. Match with errors.Is.
var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("apiclient: not found")

	// ErrConflict is returned for 409 responses (e.g. "already applied").
	ErrConflict = errors.New("apiclient: conflict")

	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("apiclient: unauthorized")

	// ErrUnavailable is returned for 5xx responses and transport failures.
	ErrUnavailable = errors.New("apiclient: backend unavailable")

	// ErrRequestFailed is returned for any other non-success response,
	// including 2xx envelopes with success=false.
	ErrRequestFailed = errors.New("apiclient: request failed")
)
