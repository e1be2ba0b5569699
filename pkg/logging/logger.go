// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a level name as it appears in config files and flags.
type LogLevel string

// Level names accepted by ParseLevel besides zerolog's own.
const (
	LevelDebug    LogLevel = "debug" // every page request and decode
	LevelInfo     LogLevel = "info"  // one start/complete line per collection fetch
	LevelWarn     LogLevel = "warn"
	LevelError    LogLevel = "error"
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration. A nil Output means os.Stderr.
type Config struct {
	Level  LogLevel
	Pretty bool
	Output io.Writer
}

// DefaultConfig logs JSON at info to stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// Configure is Setup for callers holding plain settings, such as the
// cbapi CLI and the proxy.
func Configure(level string, pretty bool, out io.Writer) zerolog.Logger {
	return Setup(Config{Level: LogLevel(level), Pretty: pretty, Output: out})
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to zerolog.Level. Unknown names
// fall back to info.
func ParseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	switch name {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "off", "none":
		return zerolog.Disabled
	}

	parsed, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Levels used by this module:
//   - debug: page requests, "Retrieved page x/y", worker start/stop
//   - info: fetch start (total_pages, total_items), every 50 pages, fetch complete
//   - warn: non-2xx responses, malformed envelopes, failed fetches
//   - error: transport failures, proxied fetches that failed
//
// Common fields: component, endpoint, page, total_pages, worker_id,
// status_code, duration.
