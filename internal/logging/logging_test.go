package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "warn", FormatJSON)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "source", "blocks_by_time")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "blocks_by_time", entry["source"])
}

func TestNewWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "info", FormatText)
	require.NoError(t, err)

	logger.Info("loaded", "rows", 3)
	assert.Contains(t, buf.String(), "level=info")
	assert.Contains(t, buf.String(), "rows=3")
}

func TestNewWriter_Tint(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "debug", FormatTint)
	require.NoError(t, err)

	logger.Debug("tick", "box", "stats")
	assert.Contains(t, buf.String(), "tick")
	assert.Contains(t, buf.String(), "box=stats")
}

func TestNewWriter_UnknownFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
