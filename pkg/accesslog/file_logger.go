package accesslog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger appends access records as newline-delimited JSON. It is meant
// for environments without a database reachable from the gateway, or as a
// secondary destination behind a MultiLogger.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewFileLogger creates a file-based access logger, creating the parent
// directory if needed
func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create access log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open access log file: %w", err)
	}

	return &FileLogger{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// Record appends one access record as a JSON line
func (l *FileLogger) Record(ctx context.Context, userID, serviceID string) error {
	if userID == "" || serviceID == "" {
		return fmt.Errorf("user_id and service_id are required")
	}

	rec := AccessRecord{
		UserID:       userID,
		ServiceID:    serviceID,
		LastLogin:    time.Now().UTC(),
		IsAuthorized: true,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.encoder.Encode(&rec); err != nil {
		return fmt.Errorf("failed to write access record: %w", err)
	}
	return nil
}

// Close closes the underlying file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
