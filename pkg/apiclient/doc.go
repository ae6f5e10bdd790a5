// Package apiclient is the HTTP client for the storefront backend API.
//
// The backend wraps every response in a common envelope:
//
//	{ "success": bool, "data": <payload>, "message": "..." }
//
// The client unwraps the envelope and maps failures onto a small sentinel
// taxonomy: ErrNotFound (404), ErrConflict (409), ErrUnauthorized (401/403),
// ErrUnavailable (5xx or transport failure). Business-level responses (e.g. a
// coupon that validates as not applicable) are regular payloads, not errors;
// the taxonomy covers only cases where the operation could not complete.
package apiclient
