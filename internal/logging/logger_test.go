package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "quickfacts", "production")
	logger.Info().Str("user_id", "u1").Msg("hello")
	logger.Debug().Msg("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "quickfacts", line["app"])
	assert.Equal(t, "production", line["env"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "hello", line["message"])
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := IntoContext(context.Background(), logger)

	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("via context")
	assert.Contains(t, buf.String(), "via context")

	// Missing loggers fall back to a no-op.
	fallback := FromContext(context.Background())
	fallback.Info().Msg("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}
