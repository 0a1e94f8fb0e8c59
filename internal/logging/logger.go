// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

// Package logging provides the process-wide zerolog logger for Orderboard.
//
// Every package logs through this one configured instance:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("order_id", id).Msg("Order relayed")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Feed fetch failed")
//
// Adapters expose the same logger to libraries that want slog (suture) or
// a Watermill LoggerAdapter (NATS relay).
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is a zerolog level name; "warning" is accepted for warn.
	Level string

	// Format is json or console.
	Format string

	Caller    bool
	Timestamp bool

	// Service is stamped on every entry so shared log sinks can tell
	// dashboards apart. Empty omits the field.
	Service string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // logging must work before Init is called
func init() {
	initLogger(DefaultConfig())
}

// Init reconfigures the global logger. Safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

// initLogger must be called with mu held.
func initLogger(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	output := cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	lc := zerolog.New(output).With()
	if cfg.Timestamp {
		lc = lc.Timestamp()
	}
	if cfg.Caller {
		lc = lc.Caller()
	}
	if cfg.Service != "" {
		lc = lc.Str("service", cfg.Service)
	}
	log = lc.Logger()
}

// normalizeLevel maps accepted aliases onto zerolog level names.
func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return "warn"
	}
	return level
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(normalizeLevel(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// ValidLevel reports whether level names a known zerolog level.
func ValidLevel(level string) bool {
	name := normalizeLevel(level)
	if name == "" {
		return false
	}
	_, err := zerolog.ParseLevel(name)
	return err == nil
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With creates a child logger context.
func With() zerolog.Context {
	mu.RLock()
	defer mu.RUnlock()
	return log.With()
}

func Debug() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Debug()
}

func Info() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Info()
}

func Warn() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Warn()
}

func Error() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Error()
}

// Fatal starts a fatal message; os.Exit(1) follows Msg.
func Fatal() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Fatal()
}

// SetLevelString updates the global level.
func SetLevelString(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
}

// WithComponent returns a child logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}

// NewTestLogger returns a JSON logger writing to w.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
