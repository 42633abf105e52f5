package groups

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE user_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			group_name TEXT NOT NULL,
			assigned_at TIMESTAMP NOT NULL,
			UNIQUE(user_id, group_name)
		)
	`)
	require.NoError(t, err)

	return &Store{db: db}
}

func TestStoreAddAndExists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "user-1", "admin")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Add(ctx, "user-1", "admin"))

	exists, err = store.Exists(ctx, "user-1", "admin")
	require.NoError(t, err)
	assert.True(t, exists)

	// another group for the same user is a separate row
	exists, err = store.Exists(ctx, "user-1", "operators")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreAddDuplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "user-1", "admin"))
	assert.Error(t, store.Add(ctx, "user-1", "admin"))
}

func TestStoreAddRequiresFields(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.Add(ctx, "", "admin"))
	assert.Error(t, store.Add(ctx, "user-1", ""))
}

func TestStoreRemove(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "user-1", "admin"))
	require.NoError(t, store.Remove(ctx, "user-1", "admin"))

	exists, err := store.Exists(ctx, "user-1", "admin")
	require.NoError(t, err)
	assert.False(t, exists)

	// removing an absent membership is a no-op
	require.NoError(t, store.Remove(ctx, "user-1", "admin"))
}

func TestStoreListForUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "user-1", "operators"))
	require.NoError(t, store.Add(ctx, "user-1", "admin"))
	require.NoError(t, store.Add(ctx, "user-2", "viewers"))

	names, err := store.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "operators"}, names)

	names, err = store.ListForUser(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, names)
}
