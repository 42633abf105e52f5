package accesslog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBLogger implements access trail logging to PostgreSQL
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a new database-backed access logger
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	logger := &DBLogger{db: db}
	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure access_log table: %w", err)
	}
	return logger, nil
}

// ensureTable creates the access_log table if it doesn't exist
func (l *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS access_log (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		service_id VARCHAR(255) NOT NULL,
		last_login TIMESTAMP WITH TIME ZONE NOT NULL,
		is_authorized BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_access_log_user_id ON access_log(user_id);
	CREATE INDEX IF NOT EXISTS idx_access_log_service_id ON access_log(service_id);
	CREATE INDEX IF NOT EXISTS idx_access_log_last_login ON access_log(last_login DESC);
	`

	_, err := l.db.Exec(query)
	return err
}

// Record appends one access record
func (l *DBLogger) Record(ctx context.Context, userID, serviceID string) error {
	if userID == "" || serviceID == "" {
		return fmt.Errorf("user_id and service_id are required")
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO access_log (user_id, service_id, last_login, is_authorized)
		VALUES ($1, $2, $3, TRUE)
	`, userID, serviceID, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	return nil
}

// Close is a no-op; the database connection is owned by the caller
func (l *DBLogger) Close() error {
	return nil
}

// Query returns access records matching the filter, newest first
func (l *DBLogger) Query(ctx context.Context, filter Filter) ([]*AccessRecord, error) {
	query := `
		SELECT id, user_id, service_id, last_login, is_authorized
		FROM access_log
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, filter.UserID)
		argNum++
	}
	if filter.ServiceID != "" {
		query += fmt.Sprintf(" AND service_id = $%d", argNum)
		args = append(args, filter.ServiceID)
		argNum++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND last_login >= $%d", argNum)
		args = append(args, filter.Since)
		argNum++
	}
	if !filter.Until.IsZero() {
		query += fmt.Sprintf(" AND last_login <= $%d", argNum)
		args = append(args, filter.Until)
		argNum++
	}

	query += " ORDER BY last_login DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query access log: %w", err)
	}
	defer rows.Close()

	var records []*AccessRecord
	for rows.Next() {
		var rec AccessRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ServiceID, &rec.LastLogin, &rec.IsAuthorized); err != nil {
			return nil, fmt.Errorf("failed to scan access record: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}
