package log

// NewNoopLogger returns a Logger that discards everything. It is what the
// consumer runs with unless an embedder supplies a sink.
func NewNoopLogger() Logger { return noop{} }

type noop struct{}

func (noop) Debug(string, ...Field) {}
func (noop) Info(string, ...Field)  {}
func (noop) Warn(string, ...Field)  {}
func (noop) Error(string, ...Field) {}
