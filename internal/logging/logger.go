// Package logging provides structured diagnostics for versync.
//
// User-facing results go through the printer package on stdout; everything
// that explains how a result came about (lock waits, stale lock reclaims,
// backup rotation, skipped files) is a log event on stderr.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with the console format used by the CLI.
type Logger struct {
	zlog zerolog.Logger
}

// New returns a console logger writing to w. Debug events are only emitted
// when verbose is true.
func New(w io.Writer, verbose bool) *Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return &Logger{
		zlog: zerolog.New(output).Level(level).With().Timestamp().Logger(),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// OrNop returns l, or a discarding logger when l is nil, so components can
// accept an optional logger.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// With returns a child logger that carries key=value on every event.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(key, value).Logger()}
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}
