package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiHandler(t *testing.T) {
	var text, file bytes.Buffer
	h := NewMultiHandler(
		NewHandler(&text, &slog.HandlerOptions{Level: slog.LevelWarn}),
		nil,
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h).With("run", 1).WithGroup("doctor")

	logger.Debug("check started", "name", "disk-space")
	assert.Empty(t, text.String(), "text handler filters debug")
	require.NotEmpty(t, file.String())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &rec))
	assert.Equal(t, "check started", rec["msg"])
	assert.Equal(t, float64(1), rec["run"])
	assert.Equal(t, map[string]any{"name": "disk-space"}, rec["doctor"])

	file.Reset()
	logger.Warn("check failed", "name", "disk-space")
	assert.Contains(t, text.String(), "doctor.name=disk-space")
	assert.Equal(t, 1, strings.Count(file.String(), "\n"))
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := NewMultiHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	assert.True(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.False(t, h.Enabled(t.Context(), slog.LevelDebug))
	assert.False(t, NewMultiHandler().Enabled(t.Context(), slog.LevelError))
}
