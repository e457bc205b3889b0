package config

// Logger provides structured logging for multimoon components.
// The CLI plugs in a charmbracelet/log logger; library code and tests
// default to NoopLogger.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg interface{}, keysAndValues ...interface{})

	// Info logs info-level messages with optional key-value pairs.
	Info(msg interface{}, keysAndValues ...interface{})

	// Warn logs warning-level messages with optional key-value pairs.
	Warn(msg interface{}, keysAndValues ...interface{})

	// Error logs error-level messages with optional key-value pairs.
	Error(msg interface{}, keysAndValues ...interface{})
}

// noopLogger is a Logger implementation that does nothing.
type noopLogger struct{}

func (n *noopLogger) Debug(msg interface{}, keysAndValues ...interface{}) {}
func (n *noopLogger) Info(msg interface{}, keysAndValues ...interface{})  {}
func (n *noopLogger) Warn(msg interface{}, keysAndValues ...interface{})  {}
func (n *noopLogger) Error(msg interface{}, keysAndValues ...interface{}) {}

// NoopLogger returns a Logger that discards everything.
func NoopLogger() Logger {
	return &noopLogger{}
}

// LoggerOrNoop returns l, or a no-op logger when l is nil.
func LoggerOrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger()
	}
	return l
}
