// Package logutil keeps constructors free of nil-logger checks.
package logutil

import "log/slog"

var discard = slog.New(slog.DiscardHandler)

// Noop returns a logger whose output goes nowhere. Handy in tests.
func Noop() *slog.Logger { return discard }

// NoopIfNil substitutes a discard logger for a nil one so components can
// log unconditionally.
func NoopIfNil(l *slog.Logger) *slog.Logger {
	if l == nil {
		return discard
	}
	return l
}
