// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger shared by every bloodbridge component.
//
// The terminal belongs to the TUI, so logs are written to a file unless
// debug output to stderr is requested.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// Level is a zap level name: debug, info, warn, error
	Level string
	// File is the log destination. Ignored when Stderr is set.
	File string
	// Stderr sends human-readable output to stderr instead of File.
	Stderr bool
}

// New builds a production zap logger with ISO8601 timestamps.
func New(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	if opts.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}

	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.Stderr {
		config.Development = true
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
	} else if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		config.OutputPaths = []string{opts.File}
		config.ErrorOutputPaths = []string{opts.File}
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("bloodbridge"), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// LogRequest records the outcome of one HTTP exchange. Only the method,
// path, status, duration and request id are logged; headers and bodies
// never are.
func LogRequest(l *zap.Logger, method, path string, status int, start time.Time, requestID string, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID),
	}
	switch {
	case err != nil:
		l.Warn("request failed", append(fields, zap.Error(err))...)
	case status >= 400:
		l.Info("request rejected", append(fields, zap.Int("status", status))...)
	default:
		l.Debug("request ok", append(fields, zap.Int("status", status))...)
	}
}
