package logger

// Logger is the logging surface used across the codebase. Formatted methods
// cover the common severities.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a debug message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
