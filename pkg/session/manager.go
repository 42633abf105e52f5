package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/portalgate/portal/pkg/identity"
)

// CookieName is the session cookie set on the gateway origin
const CookieName = "portal_session"

// Session is a stored sign-in
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	LoginID     string    `json:"login_id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// User returns the identity view of the session
func (s *Session) User() *identity.User {
	return &identity.User{
		UserID:      s.UserID,
		LoginID:     s.LoginID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
	}
}

// Manager persists sessions and binds them to cookies
type Manager struct {
	db           *sql.DB
	ttl          time.Duration
	cookieSecure bool
}

// NewManager creates a session manager backed by the given database
func NewManager(db *sql.DB, ttl time.Duration, cookieSecure bool) (*Manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}

	m := &Manager{db: db, ttl: ttl, cookieSecure: cookieSecure}
	if err := m.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure sessions table: %w", err)
	}
	return m, nil
}

// ensureTable creates the sessions table if it doesn't exist
func (m *Manager) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		login_id VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		display_name VARCHAR(255),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`

	_, err := m.db.Exec(query)
	return err
}

// Create stores a session for the user and sets the cookie
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, user *identity.User) (*Session, error) {
	if user == nil || user.UserID == "" {
		return nil, fmt.Errorf("user is required")
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:          uuid.NewString(),
		UserID:      user.UserID,
		LoginID:     user.LoginID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, login_id, email, display_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sess.ID, sess.UserID, sess.LoginID, sess.Email, sess.DisplayName, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})

	return sess, nil
}

// FromRequest resolves the session referenced by the request cookie. A
// missing cookie, unknown ID, or expired session all resolve to nil with
// no error; only infrastructure failures surface.
func (m *Manager) FromRequest(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess := &Session{}
	var email, displayName sql.NullString
	err = m.db.QueryRowContext(ctx, `
		SELECT id, user_id, login_id, email, display_name, created_at, expires_at
		FROM sessions WHERE id = $1
	`, cookie.Value).Scan(
		&sess.ID, &sess.UserID, &sess.LoginID, &email, &displayName,
		&sess.CreatedAt, &sess.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess.Email = email.String
	sess.DisplayName = displayName.String

	if time.Now().After(sess.ExpiresAt) {
		return nil, nil
	}
	return sess, nil
}

// Destroy deletes a session and clears the cookie
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	if sessionID != "" {
		if _, err := m.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return nil
}

// DeleteExpired removes sessions past their expiry and returns the count
func (m *Manager) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := m.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// CountActive returns the number of unexpired sessions
func (m *Manager) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions WHERE expires_at >= $1
	`, time.Now().UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
