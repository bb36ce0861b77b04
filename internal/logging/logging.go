// Package logging builds the zap loggers used by the tracker binaries.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the logger is constructed.
type Options struct {
	// Level is the minimum level that gets emitted ("debug", "info",
	// "warn", "error"). Defaults to info when empty or unknown.
	Level string
	// Format selects the encoding, "console" or "json". Defaults to
	// console.
	Format string
	// FilePath, when set, mirrors log output into the given file in
	// addition to stdout.
	FilePath string
	// Development enables stack traces and the console-friendly
	// development mode.
	Development bool
}

// New builds a sugared zap logger according to opts.
func New(opts Options) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			level = zap.InfoLevel
		}
	}

	encoding := "console"
	if opts.Format == "json" {
		encoding = "json"
	}

	outputs := []string{"stdout"}
	if opts.FilePath != "" {
		outputs = append(outputs, opts.FilePath)
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       opts.Development,
		DisableStacktrace: !opts.Development,
		Encoding:          encoding,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:       "timestamp",
			MessageKey:    "message",
			LevelKey:      "level",
			EncodeLevel:   zapcore.LowercaseLevelEncoder,
			NameKey:       "logger",
			StacktraceKey: "stacktrace",
			EncodeTime:    zapcore.RFC3339TimeEncoder,
		},
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}

	return logger.Sugar(), nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
