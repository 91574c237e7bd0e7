package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("creates logger with default config", func(t *testing.T) {
		log, err := New(DefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, log)
	})

	t.Run("creates logger with json format", func(t *testing.T) {
		log, err := New(&Config{Level: "debug", Format: "json", Output: "stdout"})
		require.NoError(t, err)
		require.NotNil(t, log)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("respects configured level", func(t *testing.T) {
		log, err := New(&Config{Level: "error", Format: "json", Output: "stderr"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
	})
}

func TestNewForEnvironment(t *testing.T) {
	t.Run("production uses json", func(t *testing.T) {
		log, err := NewForEnvironment("production")
		require.NoError(t, err)
		require.NotNil(t, log)
	})

	t.Run("development uses console", func(t *testing.T) {
		log, err := NewForEnvironment("development")
		require.NoError(t, err)
		require.NotNil(t, log)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}
