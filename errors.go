package livesync

import "errors"

var (
	// ErrNotInitialized is returned when an operation runs before Initialize
	// or after Cleanup.
	ErrNotInitialized = errors.New("livesync: not initialized")

	// ErrAlreadyInitialized is returned by a second Initialize without an
	// intervening Cleanup.
	ErrAlreadyInitialized = errors.New("livesync: already initialized")

	// ErrUnsupportedOperation is returned when a domain does not provide the
	// requested lookup (e.g. no key-based fetch).
	ErrUnsupportedOperation = errors.New("livesync: operation not supported")
)
