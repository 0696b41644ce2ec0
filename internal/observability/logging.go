// Package observability builds the zap loggers used across the idle server and
// the child loggers that tag entries with a player or connection.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/abyssidle/internal/config"
)

// NewLogger builds the process logger. JSON output uses zap's production
// settings; console output uses development settings with colored levels.
// Every entry carries the service name.
//
// Precondition: cfg.Level is one of "debug", "info", "warn", "error" and
// cfg.Format is "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig, service string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if service != "" {
		zapCfg.InitialFields = map[string]any{"service": service}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ForPlayer derives a child logger that tags every entry with the player id.
//
// Precondition: logger must be non-nil.
func ForPlayer(logger *zap.Logger, playerID string) *zap.Logger {
	return logger.With(zap.String("player", playerID))
}

// ForConn derives a child logger for one client connection.
func ForConn(logger *zap.Logger, connID, remoteAddr string) *zap.Logger {
	return logger.With(zap.String("conn", connID), zap.String("remote_addr", remoteAddr))
}
