package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogcms/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)

	WithComponent(log, "store").Info("query done", "rows", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "query done", entry["msg"])
	assert.Equal(t, "store", entry["component"])
	assert.EqualValues(t, 3, entry["rows"])
}

func TestNewWithWriter_TextFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LogConfig{Level: "warn", Format: "text"}, &buf)

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LogConfig{Format: "text"}, &buf).With("request_id", "abc")

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "request_id=abc")
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	_, ok := Lookup(context.Background())
	assert.False(t, ok)
	got, ok := Lookup(ctx)
	assert.True(t, ok)
	assert.Same(t, log, got)
}
