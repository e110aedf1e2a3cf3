package logger

import corelogger "github.com/routeup/routeup/core/logger"

// Logger aliases the core interface so infra packages can depend on this
// package alone.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. Output format follows the
// APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
