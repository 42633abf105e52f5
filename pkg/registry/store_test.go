package registry

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Construct directly so ensureTable is not exercised against the mock
	return &Store{db: db}, mock
}

func serviceRows(recs ...*ServiceRecord) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "service_id", "service_name", "auth_type", "idp_provider",
		"federation_metadata", "is_active", "created_at", "updated_at",
	})
	for _, r := range recs {
		rows.AddRow(r.ID, r.ServiceID, r.ServiceName, r.AuthType, r.IDPProvider,
			r.FederationMetadata, r.IsActive, r.CreatedAt, r.UpdatedAt)
	}
	return rows
}

func TestStore_Lookup(t *testing.T) {
	store, mock := newTestStore(t)

	now := time.Now().UTC()
	rec := &ServiceRecord{
		ID:          1,
		ServiceID:   "app1",
		ServiceName: "App One",
		AuthType:    AuthTypeDirect,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectQuery("SELECT (.+) FROM services").
		WithArgs("app1").
		WillReturnRows(serviceRows(rec))

	got, err := store.Lookup(context.Background(), "app1")
	require.NoError(t, err)
	assert.Equal(t, "app1", got.ServiceID)
	assert.Equal(t, AuthTypeDirect, got.AuthType)
	assert.True(t, got.IsActive)
}

func TestStore_Lookup_NotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT (.+) FROM services").
		WithArgs("missing").
		WillReturnRows(serviceRows())

	got, err := store.Lookup(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Lookup_InfraFailureIsNotNotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT (.+) FROM services").
		WithArgs("app1").
		WillReturnError(sql.ErrConnDone)

	got, err := store.Lookup(context.Background(), "app1")
	assert.Nil(t, got)
	require.Error(t, err)
	// Infrastructure failures must stay distinguishable from absence
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestStore_Lookup_Idempotent(t *testing.T) {
	store, mock := newTestStore(t)

	now := time.Now().UTC()
	rec := &ServiceRecord{
		ID: 7, ServiceID: "app2", ServiceName: "App Two",
		AuthType: AuthTypeFederated, IDPProvider: "ExampleSAML",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("app2").WillReturnRows(serviceRows(rec))
	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("app2").WillReturnRows(serviceRows(rec))

	first, err := store.Lookup(context.Background(), "app2")
	require.NoError(t, err)
	second, err := store.Lookup(context.Background(), "app2")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStore_Create(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("INSERT INTO services").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	rec := &ServiceRecord{
		ServiceID:   "app1",
		ServiceName: "App One",
		AuthType:    AuthTypeDirect,
		IsActive:    true,
	}
	require.NoError(t, store.Create(context.Background(), rec))
	assert.Equal(t, int64(42), rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
}

func TestStore_Create_Validation(t *testing.T) {
	store, _ := newTestStore(t)

	tests := []struct {
		name string
		rec  ServiceRecord
	}{
		{"missing service id", ServiceRecord{ServiceName: "x", AuthType: AuthTypeDirect}},
		{"missing service name", ServiceRecord{ServiceID: "x", AuthType: AuthTypeDirect}},
		{"bad auth type", ServiceRecord{ServiceID: "x", ServiceName: "x", AuthType: "ldap"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			assert.Error(t, store.Create(context.Background(), &rec))
		})
	}
}

func TestStore_Update_EmptyPartialOnlyBumpsUpdatedAt(t *testing.T) {
	store, mock := newTestStore(t)

	created := time.Now().UTC().Add(-time.Hour)
	rec := &ServiceRecord{
		ID: 1, ServiceID: "app1", ServiceName: "App One",
		AuthType: AuthTypeDirect, IsActive: true,
		CreatedAt: created, UpdatedAt: created,
	}

	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("app1").WillReturnRows(serviceRows(rec))
	mock.ExpectExec("UPDATE services").WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := store.Update(context.Background(), "app1", ServiceUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "App One", got.ServiceName)
	assert.Equal(t, AuthTypeDirect, got.AuthType)
	assert.True(t, got.UpdatedAt.After(created))
	assert.Equal(t, created, got.CreatedAt)
}

func TestStore_Update_PartialFields(t *testing.T) {
	store, mock := newTestStore(t)

	created := time.Now().UTC().Add(-time.Hour)
	rec := &ServiceRecord{
		ID: 1, ServiceID: "app1", ServiceName: "App One",
		AuthType: AuthTypeDirect, IsActive: true,
		CreatedAt: created, UpdatedAt: created,
	}

	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("app1").WillReturnRows(serviceRows(rec))
	mock.ExpectExec("UPDATE services").WillReturnResult(sqlmock.NewResult(0, 1))

	name := "Renamed"
	inactive := false
	got, err := store.Update(context.Background(), "app1", ServiceUpdate{
		ServiceName: &name,
		IsActive:    &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.ServiceName)
	assert.False(t, got.IsActive)
	// Untouched fields survive
	assert.Equal(t, AuthTypeDirect, got.AuthType)
}

func TestStore_Update_NotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("missing").WillReturnRows(serviceRows())

	_, err := store.Update(context.Background(), "missing", ServiceUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("DELETE FROM services").
		WithArgs("app1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Delete(context.Background(), "app1"))
}

func TestStore_Delete_NotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("DELETE FROM services").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.Delete(context.Background(), "missing"), ErrNotFound)
}

func TestStore_ListAll(t *testing.T) {
	store, mock := newTestStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM services").
		WillReturnRows(serviceRows(
			&ServiceRecord{ID: 1, ServiceID: "app1", ServiceName: "One", AuthType: AuthTypeDirect, IsActive: true, CreatedAt: now, UpdatedAt: now},
			&ServiceRecord{ID: 2, ServiceID: "app2", ServiceName: "Two", AuthType: AuthTypeFederated, IsActive: false, CreatedAt: now, UpdatedAt: now},
		))

	records, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "app1", records[0].ServiceID)
	assert.Equal(t, AuthTypeFederated, records[1].AuthType)
}
