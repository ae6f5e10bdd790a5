// Package analytics dispatches usage events on a best-effort basis.
//
// Track never blocks and never returns an error: events are queued on a
// bounded buffer and delivered by a background worker; when the buffer is
// full the event is dropped and logged. Delivery failures are logged and
// swallowed. Analytics must not be able to fail a user-facing operation.
package analytics
