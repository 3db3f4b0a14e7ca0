// Package applog wires the module's diagnostic output through zerolog.
// Components still log in the teacher's terse one-line style
// (operation: detail) but callers now get levels, timestamps, and
// structured fields instead of bare log.Printf text.
package applog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the package-wide structured logger, safe for concurrent
// use by every goroutine in the worker pool, discovery, and export
// packages.
var Logger = newDefault()

func newDefault() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger()
}

// Configure replaces the package logger with one writing level-filtered,
// optionally JSON-formatted output to w. level accepts zerolog's usual
// names ("debug", "info", "warn", "error"); an unrecognized or empty
// value falls back to "info".
func Configure(w io.Writer, level string, jsonOutput bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var out io.Writer = w
	if !jsonOutput {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Named returns a child logger tagging every event with a component
// field, e.g. applog.Named("discovery") before scanning session roots.
func Named(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
