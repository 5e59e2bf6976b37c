// Package logging defines the structured-logging interface used across the
// project and its zap-backed implementation.
package logging

// Logger is a structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info("database opened", "path", path, "engine", name)
type Logger interface {
	// Debug logs diagnostic detail, off by default.
	Debug(msg string, args ...any)

	// Info logs an informational message.
	Info(msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(msg string, args ...any)

	// Error logs an error message for failures.
	Error(msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
