// Package logging builds the zap logger used by the service surfaces.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/carbonsense/carbonsense/pkg/config"
)

// New builds a logger from cfg. Format "console" selects the development
// encoder; anything else logs JSON lines.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if strings.EqualFold(cfg.Format, "console") {
		zc = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level = parsed
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if len(cfg.Output) > 0 {
		zc.OutputPaths = cfg.Output
	}
	return zc.Build()
}

// Must is New for command entry points, where a broken logging config
// falls back to a no-op logger rather than blocking the command.
func Must(cfg config.LoggingConfig) *zap.Logger {
	logger, err := New(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
