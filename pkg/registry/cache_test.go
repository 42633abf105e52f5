package registry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCachedStore(t *testing.T) (*CachedStore, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cached := &CachedStore{
		store: &Store{db: db},
		redis: client,
		ttl:   time.Minute,
	}
	return cached, mock, mr
}

func TestCachedStore_LookupReadThrough(t *testing.T) {
	cached, mock, _ := newTestCachedStore(t)

	now := time.Now().UTC()
	rec := &ServiceRecord{
		ID: 1, ServiceID: "app1", ServiceName: "App One",
		AuthType: AuthTypeDirect, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}

	// Only one DB query expected: second lookup is served from Redis
	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("app1").WillReturnRows(serviceRows(rec))

	first, err := cached.Lookup(context.Background(), "app1")
	require.NoError(t, err)
	second, err := cached.Lookup(context.Background(), "app1")
	require.NoError(t, err)

	assert.Equal(t, first.ServiceID, second.ServiceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedStore_NotFoundIsNotCached(t *testing.T) {
	cached, mock, mr := newTestCachedStore(t)

	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("ghost").WillReturnRows(serviceRows())

	_, err := cached.Lookup(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("service:ghost"))
}

func TestCachedStore_UpdateInvalidates(t *testing.T) {
	cached, mock, mr := newTestCachedStore(t)

	now := time.Now().UTC()
	rec := &ServiceRecord{
		ID: 1, ServiceID: "app1", ServiceName: "App One",
		AuthType: AuthTypeDirect, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}

	// Prime the cache
	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("app1").WillReturnRows(serviceRows(rec))
	_, err := cached.Lookup(context.Background(), "app1")
	require.NoError(t, err)
	require.True(t, mr.Exists("service:app1"))

	// Update goes through the store and drops the cached entry
	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("app1").WillReturnRows(serviceRows(rec))
	mock.ExpectExec("UPDATE services").WillReturnResult(sqlmock.NewResult(0, 1))

	name := "Renamed"
	_, err = cached.Update(context.Background(), "app1", ServiceUpdate{ServiceName: &name})
	require.NoError(t, err)
	assert.False(t, mr.Exists("service:app1"))
	assert.False(t, mr.Exists(listCacheKey))
}

func TestCachedStore_RedisDownFallsBackToDB(t *testing.T) {
	cached, mock, mr := newTestCachedStore(t)

	now := time.Now().UTC()
	rec := &ServiceRecord{
		ID: 1, ServiceID: "app1", ServiceName: "App One",
		AuthType: AuthTypeDirect, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}

	mr.Close()
	mock.ExpectQuery("SELECT (.+) FROM services").WithArgs("app1").WillReturnRows(serviceRows(rec))

	got, err := cached.Lookup(context.Background(), "app1")
	require.NoError(t, err)
	assert.Equal(t, "app1", got.ServiceID)
}
