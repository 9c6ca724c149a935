package logging

import (
	"errors"
	"testing"

	"github.com/fadedpez/egmcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"info", INFO},
		{"", INFO},
		{"verbose", INFO},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ParseLevel(tc.input), "level for %q", tc.input)
	}
}

func TestLogErrorGameError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore(core)

	logger.LogError(types.WrapError(types.ErrTransactionFailed, "commit", errors.New("database is locked")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "TRANSACTION_FAILED", fields["code"])
	assert.Equal(t, "commit", fields["message"])
	assert.Equal(t, "database is locked", fields["cause"])
}

func TestLogErrorPlainError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore(core)

	logger.LogError(errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Unexpected error: boom", entries[0].Message)
}

func TestNamedKeepsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewWithCore(core).Named("rounds")

	logger.Debug("hidden %d", 1)
	logger.Info("shown %d", 2)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "shown 2", entries[0].Message)
	assert.Equal(t, "rounds", entries[0].LoggerName)
}
