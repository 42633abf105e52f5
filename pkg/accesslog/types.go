package accesslog

import (
	"context"
	"time"
)

// AccessRecord is one entry in the append-only access trail. The
// (UserID, ServiceID) pair is a correlation key, not a uniqueness
// constraint: every login appends a fresh row.
type AccessRecord struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	ServiceID    string    `json:"service_id"`
	LastLogin    time.Time `json:"last_login"`
	IsAuthorized bool      `json:"is_authorized"`
}

// Logger is the interface for access trail writers
type Logger interface {
	// Record appends one access record for the given user and service.
	// LastLogin is stamped at write time and IsAuthorized is set true;
	// there is no revocation path through this interface.
	Record(ctx context.Context, userID, serviceID string) error

	// Close flushes and releases any underlying resources
	Close() error
}

// Filter narrows an export query. Zero values mean "no constraint".
type Filter struct {
	UserID    string
	ServiceID string
	Since     time.Time
	Until     time.Time
	Limit     int
}
