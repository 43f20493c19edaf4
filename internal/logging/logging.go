// Package logging builds the process-wide zap logger for agencyd.
//
// Logger construction is an explicit initialization step invoked once by the
// entrypoint; nothing in this package mutates global state implicitly.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/agencyd/internal/config"
)

// Config holds logging configuration.
type Config struct {
	// Level is a zap level name ("debug", "info", "warn", "error").
	// Empty means "info".
	Level string

	// Format is "json" or "console". Empty means "json".
	Format string

	// File, when set, appends log output to the named file.
	File string

	// Console enables log output on stdout.
	Console bool
}

// FromApp maps the resolved application configuration onto a logging Config.
func FromApp(cfg *config.Config) Config {
	return Config{
		Level:   cfg.LogLevel,
		Console: cfg.ConsoleLogging,
		File:    cfg.LogFile,
	}
}

// New creates a zap logger from config. When neither console nor file output
// is enabled, a no-op logger is returned.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	format := cfg.Format
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "console" {
		return nil, fmt.Errorf("log format must be 'json' or 'console', got %q", format)
	}

	var cores []zapcore.Core
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(newEncoder(format), zapcore.Lock(os.Stdout), level))
	}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		// File output is always JSON for machine consumption.
		cores = append(cores, zapcore.NewCore(newEncoder("json"), zapcore.AddSync(f), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// newEncoder creates a JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
