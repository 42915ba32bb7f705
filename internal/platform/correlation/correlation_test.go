package correlation

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithID_RoundTrip(t *testing.T) {
	ctx := WithID(context.Background(), "run-123")

	id, ok := ID(ctx)
	require.True(t, ok)
	assert.Equal(t, "run-123", id)
}

func TestID_MissingFromContext(t *testing.T) {
	_, ok := ID(context.Background())
	assert.False(t, ok)
}

func TestID_EmptyStringNotPresent(t *testing.T) {
	ctx := WithID(context.Background(), "")
	_, ok := ID(ctx)
	assert.False(t, ok)
}

func TestHandler_InjectsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil)))
	ctx := WithID(context.Background(), "run-456")

	logger.InfoContext(ctx, "something happened")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "run-456", record["correlation_id"])
}

func TestHandler_NoIDNoAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "something happened")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	_, present := record["correlation_id"]
	assert.False(t, present)
}

func TestHandler_WithAttrsKeepsInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil))).With("component", "scheduler")
	ctx := WithID(context.Background(), "run-789")

	logger.InfoContext(ctx, "run starting")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "run-789", record["correlation_id"])
	assert.Equal(t, "scheduler", record["component"])
}
