package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no service matches the requested service ID.
// Callers must not conflate it with infrastructure failures: a failed lookup
// surfaces as a different (wrapped) error so telemetry can tell them apart.
var ErrNotFound = errors.New("service not found")

// Store handles service registry persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new registry store
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	s := &Store{db: db}
	if err := s.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure services table: %w", err)
	}
	return s, nil
}

// ensureTable creates the services table if it doesn't exist
func (s *Store) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS services (
		id BIGSERIAL PRIMARY KEY,
		service_id VARCHAR(255) NOT NULL UNIQUE,
		service_name VARCHAR(255) NOT NULL,
		auth_type VARCHAR(20) NOT NULL,
		idp_provider VARCHAR(255),
		federation_metadata TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_services_service_id ON services(service_id);
	`

	_, err := s.db.Exec(query)
	return err
}

// Lookup retrieves a service by its external service ID. Returns ErrNotFound
// when no record matches; any other error is an infrastructure failure.
func (s *Store) Lookup(ctx context.Context, serviceID string) (*ServiceRecord, error) {
	query := `
		SELECT id, service_id, service_name, auth_type, idp_provider, federation_metadata, is_active, created_at, updated_at
		FROM services
		WHERE service_id = $1
	`

	rec, err := s.scanRecord(s.db.QueryRowContext(ctx, query, serviceID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup service %q: %w", serviceID, err)
	}
	return rec, nil
}

// ListAll returns all registered services ordered by service ID
func (s *Store) ListAll(ctx context.Context) ([]*ServiceRecord, error) {
	query := `
		SELECT id, service_id, service_name, auth_type, idp_provider, federation_metadata, is_active, created_at, updated_at
		FROM services
		ORDER BY service_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var records []*ServiceRecord
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Create inserts a new service record and stamps CreatedAt/UpdatedAt
func (s *Store) Create(ctx context.Context, rec *ServiceRecord) error {
	if rec.ServiceID == "" {
		return fmt.Errorf("service_id is required")
	}
	if rec.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if !rec.AuthType.Valid() {
		return fmt.Errorf("invalid auth_type: %q", rec.AuthType)
	}

	query := `
		INSERT INTO services (service_id, service_name, auth_type, idp_provider, federation_metadata, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, query,
		rec.ServiceID,
		rec.ServiceName,
		rec.AuthType,
		nullString(rec.IDPProvider),
		nullString(rec.FederationMetadata),
		rec.IsActive,
		now,
		now,
	).Scan(&rec.ID)

	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

// Update applies a partial update identified by service ID. ServiceID itself
// is immutable. UpdatedAt is stamped on every call, including an empty update.
func (s *Store) Update(ctx context.Context, serviceID string, upd ServiceUpdate) (*ServiceRecord, error) {
	existing, err := s.Lookup(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	if upd.ServiceName != nil {
		existing.ServiceName = *upd.ServiceName
	}
	if upd.AuthType != nil {
		if !upd.AuthType.Valid() {
			return nil, fmt.Errorf("invalid auth_type: %q", *upd.AuthType)
		}
		existing.AuthType = *upd.AuthType
	}
	if upd.IDPProvider != nil {
		existing.IDPProvider = *upd.IDPProvider
	}
	if upd.FederationMetadata != nil {
		existing.FederationMetadata = *upd.FederationMetadata
	}
	if upd.IsActive != nil {
		existing.IsActive = *upd.IsActive
	}

	query := `
		UPDATE services
		SET service_name = $1, auth_type = $2, idp_provider = $3, federation_metadata = $4, is_active = $5, updated_at = $6
		WHERE service_id = $7
	`

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, query,
		existing.ServiceName,
		existing.AuthType,
		nullString(existing.IDPProvider),
		nullString(existing.FederationMetadata),
		existing.IsActive,
		now,
		serviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update service %q: %w", serviceID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	existing.UpdatedAt = now
	return existing, nil
}

// Delete removes a service record by service ID
func (s *Store) Delete(ctx context.Context, serviceID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE service_id = $1`, serviceID)
	if err != nil {
		return fmt.Errorf("failed to delete service %q: %w", serviceID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanRecord(row scanner) (*ServiceRecord, error) {
	var rec ServiceRecord
	var idpProvider, federationMetadata sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.ServiceID,
		&rec.ServiceName,
		&rec.AuthType,
		&idpProvider,
		&federationMetadata,
		&rec.IsActive,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.IDPProvider = idpProvider.String
	rec.FederationMetadata = federationMetadata.String
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
