package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithCorrelationID_UsesContextValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	ctx := ContextWithCorrelationID(context.Background(), "req-123")
	logger.WithCorrelationID(ctx).Info("waitlist submission received")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-123", record["correlation_id"])
	assert.Equal(t, "waitlist submission received", record["msg"])
}

func TestGetLoggerInstanceFromContext(t *testing.T) {
	fallback := NewDiscardLogger()
	scoped := NewDiscardLogger().With("route", "/v1/waitlist")

	ctx := ContextWithLogger(context.Background(), scoped)
	assert.Same(t, scoped, GetLoggerInstanceFromContext(ctx, fallback))
	assert.Same(t, scoped, FromContext(ctx))

	assert.Same(t, fallback, GetLoggerInstanceFromContext(nil, fallback)) //nolint:staticcheck
	assert.NotNil(t, GetLoggerInstanceFromContext(context.Background(), fallback))
	assert.Nil(t, FromContext(context.Background()))
}

func TestGenerateCorrelationID_IsUnique(t *testing.T) {
	assert.NotEqual(t, GenerateCorrelationID(), GenerateCorrelationID())
	assert.NotEmpty(t, GetOrGenerateCorrelationID(context.Background()))
}
