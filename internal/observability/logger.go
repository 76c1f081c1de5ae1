// Package observability builds the process logger and the Prometheus
// collector shared by handlers, middleware and stores.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ritu11x/cortex-ai/internal/config"
)

// NewLogger builds a JSON or console logger at the configured level. The
// returned level can be changed at runtime.
func NewLogger(cfg config.Logging) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	atom := zap.NewAtomicLevelAt(level)

	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "ts"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = atom

	logger, err := zcfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, atom, nil
}

// SetLevel applies a new level string, keeping the old one on error.
func SetLevel(atom zap.AtomicLevel, level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	atom.SetLevel(parsed)
	return nil
}
