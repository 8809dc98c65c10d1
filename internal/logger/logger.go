// Package logger builds the application zap logger
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Python logging names accepted alongside zap's own
var levelAliases = map[string]string{
	"warning":  "warn",
	"critical": "fatal",
}

// NewLogger returns a JSON production logger at the given level, or a
// console development logger at debug level when debug is set. An unknown
// level falls back to info.
func NewLogger(level string, debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	lvl, known := parseLevel(level)

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	if !known {
		logger.Warn("Unknown log level, using info", zap.String("level", level))
	}
	return logger, nil
}

func parseLevel(level string) (zapcore.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(level))
	if alias, ok := levelAliases[name]; ok {
		name = alias
	}
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel, false
	}
	return lvl, true
}
