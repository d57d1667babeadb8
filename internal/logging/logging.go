// Package logging centralizes logger construction for the application.
//
// Two styles of logger coexist:
//   - zerolog.Logger for structured, leveled logging throughout the
//     evaluation pipeline (pool, backends, convergence loop).
//   - the minimal Logger interface for components that only need
//     Printf/Println-style output (the HTTP server), which keeps those
//     components decoupled from any particular logging library.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Logger is the minimal logging interface used by components that do not
// need structured logging. Both the standard library log.Logger and the
// zerolog-backed logger satisfy it via adapters.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// New constructs the application's structured logger.
//
// When the writer is a terminal, output goes through zerolog's console
// writer for human-readable lines; otherwise raw JSON is emitted so logs
// can be ingested by machines. The level string follows zerolog
// conventions ("debug", "info", "warn", "error"); unparseable levels fall
// back to info.
//
// Parameters:
//   - w: The destination writer (typically os.Stderr).
//   - level: The minimum level to emit.
//
// Returns:
//   - zerolog.Logger: The configured logger.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if isTerminal(w) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// WithComponent returns a child logger tagged with a component name.
// All events carry the tag, which keeps pipeline stages distinguishable
// in interleaved output.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithRunID returns a child logger tagged with a run identifier so every
// event of one grid evaluation can be correlated.
func WithRunID(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// Nop returns a logger that discards everything. Used in tests and as a
// safe default for optional logger fields.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// isTerminal reports whether w is attached to an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// zerologAdapter adapts a zerolog.Logger to the Logger interface.
type zerologAdapter struct {
	logger zerolog.Logger
}

// Printf implements Logger by emitting at info level.
func (a zerologAdapter) Printf(format string, v ...any) {
	a.logger.Info().Msgf(format, v...)
}

// Println implements Logger by emitting at info level.
func (a zerologAdapter) Println(v ...any) {
	a.logger.Info().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// NewLogger returns a Logger backed by a structured zerolog logger tagged
// with the given component name.
//
// Parameters:
//   - w: The destination writer.
//   - component: The component tag for all emitted events.
//
// Returns:
//   - Logger: The adapter satisfying the minimal interface.
func NewLogger(w io.Writer, component string) Logger {
	return zerologAdapter{logger: WithComponent(New(w, "info"), component)}
}

// NewStdLoggerAdapter wraps a standard library log.Logger in the Logger
// interface. This provides backward compatibility for callers holding a
// *log.Logger.
func NewStdLoggerAdapter(logger *log.Logger) Logger {
	return stdAdapter{logger: logger}
}

type stdAdapter struct {
	logger *log.Logger
}

func (a stdAdapter) Printf(format string, v ...any) { a.logger.Printf(format, v...) }
func (a stdAdapter) Println(v ...any)               { a.logger.Println(v...) }
