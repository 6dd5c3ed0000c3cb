package jniscan

import (
	"log/slog"
)

// Package logger. Defaults to the process-wide slog logger; hosts that
// route logs elsewhere can swap it in before opening sessions.
var logger = slog.Default()

// SetLogger replaces the package logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
