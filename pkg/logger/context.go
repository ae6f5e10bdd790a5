package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type ctxKey int

const (
	namespaceKey ctxKey = iota
	operationKey
)

// WithNamespace annotates the context with the realtime namespace the
// operation belongs to (e.g. "coupons", "comparisons").
func WithNamespace(ctx context.Context, ns string) context.Context {
	return context.WithValue(ctx, namespaceKey, ns)
}

// WithOperation annotates the context with the logical operation name
// (e.g. "validate", "apply").
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey, op)
}

// NamespaceExtractor emits the namespace stored by WithNamespace.
func NamespaceExtractor(ctx context.Context) (slog.Attr, bool) {
	if ns, ok := ctx.Value(namespaceKey).(string); ok && ns != "" {
		return slog.String("namespace", ns), true
	}
	return slog.Attr{}, false
}

// OperationExtractor emits the operation stored by WithOperation.
func OperationExtractor(ctx context.Context) (slog.Attr, bool) {
	if op, ok := ctx.Value(operationKey).(string); ok && op != "" {
		return slog.String("operation", op), true
	}
	return slog.Attr{}, false
}
