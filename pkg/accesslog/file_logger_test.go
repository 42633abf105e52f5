package accesslog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger_RecordAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access", "access.log")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	require.NoError(t, logger.Record(context.Background(), "user-1", "app1"))
	require.NoError(t, logger.Record(context.Background(), "user-2", "app2"))
	require.NoError(t, logger.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []AccessRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec AccessRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}

	require.Len(t, records, 2)
	assert.Equal(t, "user-1", records[0].UserID)
	assert.Equal(t, "app2", records[1].ServiceID)
	assert.True(t, records[0].IsAuthorized)
	assert.False(t, records[0].LastLogin.IsZero())
}

func TestMultiLogger_FansOutAndKeepsGoing(t *testing.T) {
	dir := t.TempDir()

	ok1, err := NewFileLogger(filepath.Join(dir, "a.log"))
	require.NoError(t, err)
	ok2, err := NewFileLogger(filepath.Join(dir, "b.log"))
	require.NoError(t, err)

	// A closed destination fails; the healthy one still receives the record
	broken, err := NewFileLogger(filepath.Join(dir, "c.log"))
	require.NoError(t, err)
	require.NoError(t, broken.Close())

	multi := NewMultiLogger(broken, ok1, ok2)
	err = multi.Record(context.Background(), "user-1", "app1")
	assert.Error(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "a.log"))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
