package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	now := time.Now()
	logger.Info("runtime captured", "version", "8.3.6")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "runtime captured")
	assert.Contains(t, out, "version=8.3.6")
	assert.Contains(t, out, now.Format(time.Kitchen))
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestHandler_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, &slog.HandlerOptions{Level: LevelTrace})

	r := slog.NewRecord(time.Time{}, LevelTrace, "probe", 0)
	require.NoError(t, h.Handle(context.Background(), r))
	assert.Equal(t, "TRACE probe\n", buf.String())
}

func TestHandler_WithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil)).
		With("component", "server").
		WithGroup("apache").
		With("binary", "apachectl")

	logger.Info("listing modules", "count", 3, slog.Group("mod", "name", "rewrite"))

	out := buf.String()
	assert.Contains(t, out, " component=server")
	assert.Contains(t, out, " apache.binary=apachectl")
	assert.Contains(t, out, " apache.count=3")
	assert.Contains(t, out, " apache.mod.name=rewrite")
}

func TestHandler_WithEmpty(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, nil)
	assert.Same(t, h, h.WithAttrs(nil))
	assert.Same(t, h, h.WithGroup(""))
}

func TestHandler_Enabled(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	ctx := context.Background()

	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	assert.True(t, NewHandler(&bytes.Buffer{}, nil).Enabled(ctx, slog.LevelInfo), "default level is info")
}

func TestHandler_NoTime(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, nil)

	require.NoError(t, h.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "no time", 0)))
	assert.Equal(t, "INFO  no time\n", buf.String())
}

func TestHandler_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil))

	logger.Info("sensitive data", "api_key", "secret12345", "Token", "ghp_abcdef")
	out := buf.String()
	assert.NotContains(t, out, "secret12345")
	assert.Contains(t, out, "api_key=****2345")
	assert.Contains(t, out, "Token=****cdef")

	buf.Reset()
	logger.Info("token value", "foo", "ghp_secrettoken")
	assert.Contains(t, buf.String(), "foo=****oken")
}
