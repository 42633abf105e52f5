package accesslog

import "context"

// MultiLogger fans out each access record to several loggers. A failing
// destination does not stop the others; the first error is returned.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger writing to all given destinations
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Record appends the record to every destination
func (m *MultiLogger) Record(ctx context.Context, userID, serviceID string) error {
	var firstErr error
	for _, l := range m.loggers {
		if err := l.Record(ctx, userID, serviceID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every destination
func (m *MultiLogger) Close() error {
	var firstErr error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
