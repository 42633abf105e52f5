// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//   import "github.com/portalgate/portal/pkg/contextkeys"
//   ctx = context.WithValue(ctx, contextkeys.SessionKey, sess)
//   sess := ctx.Value(contextkeys.SessionKey).(*session.Session)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *session.Session for the authenticated user
	// Set by: server.SessionMiddleware (pkg/server/middleware.go)
	// Required by: dispatch handlers, admin guard middleware
	// Type: *session.Session
	SessionKey Key = "session"

	// RequestIDKey contains request ID string (UUID)
	// Set by: server.RequestIDMiddleware
	// Used by: Logger, access trail
	// Type: string
	RequestIDKey Key = "request_id"

	// UserIDKey contains user ID string
	// Set by: server.SessionMiddleware after session resolution
	// Used by: Logger, access trail, user-scoped operations
	// Type: string
	UserIDKey Key = "user_id"
)

// Helper functions for type-safe context operations

// WithSession adds the resolved session to the context
func WithSession(ctx context.Context, sess interface{}) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// RequestID retrieves the request ID from the context, or "" if unset
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// UserID retrieves the user ID from the context, or "" if unset
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}
