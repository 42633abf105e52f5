package accesslog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDBLogger(t *testing.T) (*DBLogger, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &DBLogger{db: db}, mock
}

func TestDBLogger_Record(t *testing.T) {
	logger, mock := newTestDBLogger(t)

	mock.ExpectExec("INSERT INTO access_log").
		WithArgs("user-1", "app1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := logger.Record(context.Background(), "user-1", "app1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLogger_Record_RequiresIDs(t *testing.T) {
	logger, _ := newTestDBLogger(t)

	assert.Error(t, logger.Record(context.Background(), "", "app1"))
	assert.Error(t, logger.Record(context.Background(), "user-1", ""))
}

func TestDBLogger_Record_PropagatesWriteFailure(t *testing.T) {
	logger, mock := newTestDBLogger(t)

	mock.ExpectExec("INSERT INTO access_log").WillReturnError(sql.ErrConnDone)

	// The caller decides to swallow this; the logger itself must surface it
	assert.Error(t, logger.Record(context.Background(), "user-1", "app1"))
}

func TestDBLogger_Query_Filters(t *testing.T) {
	logger, mock := newTestDBLogger(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "service_id", "last_login", "is_authorized"}).
		AddRow(int64(1), "user-1", "app1", now, true).
		AddRow(int64(2), "user-1", "app1", now.Add(-time.Hour), true)

	mock.ExpectQuery("SELECT (.+) FROM access_log").
		WithArgs("user-1", "app1").
		WillReturnRows(rows)

	records, err := logger.Query(context.Background(), Filter{UserID: "user-1", ServiceID: "app1"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "app1", records[0].ServiceID)
	assert.True(t, records[0].IsAuthorized)
}
