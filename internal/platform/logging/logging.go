// Package logging builds the process zap logger.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a sugared logger for the given environment and level.
// Development uses the console encoder; everything else logs JSON.
func New(env, level string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, errors.Wrapf(err, "logging: invalid level %q", level)
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "logging: build")
	}
	return logger.Sugar(), nil
}

// Install replaces zap's globals with l so packages that log through
// zap.S() share the process logger. It returns a restore func.
func Install(l *zap.SugaredLogger) func() {
	return zap.ReplaceGlobals(l.Desugar())
}
