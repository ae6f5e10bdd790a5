// Package logger provides structured logging for the synchronization engine.
//
// It builds on log/slog: a JSON handler factory, a decorator that injects
// context-extracted attributes (namespace, operation) on every log call, and
// an optional Sentry handler so transport failures and reconnect storms are
// reported without any extra plumbing at call sites.
//
// Basic usage:
//
//	log := logger.New(logger.NamespaceExtractor, logger.OperationExtractor)
//	ctx := logger.WithNamespace(ctx, "coupons")
//	log.InfoContext(ctx, "channel connected")
//
// With Sentry (falls back to stdout-only when DSN is empty):
//
//	log := logger.NewWithSentry(logger.SentryConfig{DSN: os.Getenv("SENTRY_DSN")})
package logger
