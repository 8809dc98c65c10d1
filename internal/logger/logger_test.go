package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_Debug(t *testing.T) {
	l, err := NewLogger("error", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_Levels(t *testing.T) {
	testCases := []struct {
		name     string
		level    string
		enabled  zapcore.Level
		disabled zapcore.Level
	}{
		{"warning", "warning", zapcore.WarnLevel, zapcore.InfoLevel},
		{"warning_upper", "WARNING", zapcore.WarnLevel, zapcore.InfoLevel},
		{"critical", "critical", zapcore.FatalLevel, zapcore.ErrorLevel},
		{"error", "error", zapcore.ErrorLevel, zapcore.WarnLevel},
		{"unknown_falls_back_to_info", "loud", zapcore.InfoLevel, zapcore.DebugLevel},
		{"empty_falls_back_to_info", "", zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := NewLogger(tc.level, false)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tc.enabled))
			assert.False(t, l.Core().Enabled(tc.disabled))
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, known := parseLevel("Critical")
	assert.True(t, known)
	assert.Equal(t, zapcore.FatalLevel, lvl)

	lvl, known = parseLevel("verbose")
	assert.False(t, known)
	assert.Equal(t, zapcore.InfoLevel, lvl)
}
