package groups

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store handles group membership persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new membership store
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	s := &Store{db: db}
	if err := s.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure user_groups table: %w", err)
	}
	return s, nil
}

// ensureTable creates the user_groups table if it doesn't exist
func (s *Store) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS user_groups (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		group_name VARCHAR(255) NOT NULL,
		assigned_at TIMESTAMP WITH TIME ZONE NOT NULL,
		UNIQUE(user_id, group_name)
	);

	CREATE INDEX IF NOT EXISTS idx_user_groups_user_id ON user_groups(user_id);
	`

	_, err := s.db.Exec(query)
	return err
}

// Add creates a membership row. Adding an existing membership is an error.
func (s *Store) Add(ctx context.Context, userID, groupName string) error {
	if userID == "" || groupName == "" {
		return fmt.Errorf("user_id and group_name are required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_groups (user_id, group_name, assigned_at)
		VALUES ($1, $2, $3)
	`, userID, groupName, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to add membership %s/%s: %w", userID, groupName, err)
	}
	return nil
}

// Remove deletes a membership row. Removing an absent membership is a no-op.
func (s *Store) Remove(ctx context.Context, userID, groupName string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM user_groups WHERE user_id = $1 AND group_name = $2
	`, userID, groupName)

	if err != nil {
		return fmt.Errorf("failed to remove membership %s/%s: %w", userID, groupName, err)
	}
	return nil
}

// Exists reports whether a membership row is present for the pair
func (s *Store) Exists(ctx context.Context, userID, groupName string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM user_groups WHERE user_id = $1 AND group_name = $2
	`, userID, groupName).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership %s/%s: %w", userID, groupName, err)
	}
	return true, nil
}

// ListForUser returns all group names the user belongs to
func (s *Store) ListForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name FROM user_groups WHERE user_id = $1 ORDER BY group_name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for %s: %w", userID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan group name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
