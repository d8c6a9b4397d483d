package logger

// NoopLogger discards all log output. Useful in tests.
type NoopLogger struct{}

// NewNoop returns a logger that discards everything.
func NewNoop() Interface {
	return &NoopLogger{}
}

// Debug does nothing.
func (n *NoopLogger) Debug(string, ...any) {}

// Info does nothing.
func (n *NoopLogger) Info(string, ...any) {}

// Warn does nothing.
func (n *NoopLogger) Warn(string, ...any) {}

// Error does nothing.
func (n *NoopLogger) Error(string, ...any) {}

// Fatal does nothing.
func (n *NoopLogger) Fatal(string, ...any) {}

// With returns the receiver unchanged.
func (n *NoopLogger) With(...any) Interface { return n }
