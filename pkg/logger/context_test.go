package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livesync/pkg/logger"
)

func TestDecorator_ContextExtraction(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := logger.NewDecorator(
		slog.NewJSONHandler(&buf, nil),
		logger.NamespaceExtractor,
		logger.OperationExtractor,
		nil, // nil extractors must be ignored
	)
	log := slog.New(h)

	ctx := logger.WithNamespace(context.Background(), "coupons")
	ctx = logger.WithOperation(ctx, "validate")
	log.InfoContext(ctx, "cache miss")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "coupons", rec["namespace"])
	require.Equal(t, "validate", rec["operation"])
	require.Equal(t, "cache miss", rec["msg"])
}

func TestDecorator_NoAttrsWithoutContextValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(logger.NewDecorator(
		slog.NewJSONHandler(&buf, nil),
		logger.NamespaceExtractor,
	))

	log.InfoContext(context.Background(), "plain")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.NotContains(t, rec, "namespace")
}
