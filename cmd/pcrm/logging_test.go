package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitLoggerConsoleOnly(t *testing.T) {
	logger, closeLog := initLogger("debug", "")
	defer closeLog()
	_, isMulti := logger.Handler().(*multiHandler)
	assert.False(t, isMulti, "no remote sink without seq_url")
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelWarn,
		"loud":  slog.LevelWarn,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
