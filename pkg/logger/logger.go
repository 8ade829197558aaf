// Package logger builds the zap.SugaredLogger shared by every subsystem.
// Each component takes one in its Config rather than constructing its own,
// so a single call here controls the format and level for the whole store.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap.SugaredLogger tagged with the given
// service name. Output is JSON to stderr at info level, matching the
// defaults ignite's sibling services run with.
func New(service string) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(zap.InfoLevel),
	)

	log := zap.New(core, zap.AddCaller()).Sugar().With("service", service)
	return log
}

// NewDevelopment builds a human-readable, colorized logger for local runs
// and tests, where JSON output only gets in the way.
func NewDevelopment(service string) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	log, err := cfg.Build(zap.AddCaller())
	if err != nil {
		// Development logger construction only fails on a malformed static
		// config, never at runtime; fall back to a no-op logger rather than
		// panic from a logging helper.
		return zap.NewNop().Sugar()
	}

	return log.Sugar().With("service", service)
}
