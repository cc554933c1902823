package logging

import "go.uber.org/zap"

// New returns a named child of the global zap logger. Call it after
// config.New has replaced the globals, or the logger will be a no-op.
func New(component string) *zap.SugaredLogger {
	return zap.S().Named(component)
}
