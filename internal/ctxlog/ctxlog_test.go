package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	got := FromContext(ctx)
	require.Same(t, logger, got)

	got.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	got := FromContext(context.Background())
	require.NotNil(t, got)
	assert.Same(t, slog.Default(), got)
}
