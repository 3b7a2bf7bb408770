package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

func newTestRunner(t *testing.T, timeout time.Duration) (*SQLRunner, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRunner(db, NewMemoryRegistry(time.Minute), timeout, nil), mock
}

func TestSQLRunner_SucceedsWithHeaderFirstRows(t *testing.T) {
	runner, mock := newTestRunner(t, time.Second)
	mock.ExpectQuery(`SELECT name, total FROM orders`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "total"}).
			AddRow([]byte("alice"), 10).
			AddRow("bob", nil))

	ctx := context.Background()
	handle, err := runner.Submit(ctx, "SELECT name, total FROM orders")
	require.NoError(t, err)
	runner.Wait()

	status, err := runner.PollStatus(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, entities.ExecutionSucceeded, status)

	rows, err := runner.FetchRows(ctx, handle)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []any{"name", "total"}, rows[0])
	assert.Equal(t, "alice", rows[1][0])
	assert.Nil(t, rows[2][1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRunner_QueryErrorMarksFailed(t *testing.T) {
	runner, mock := newTestRunner(t, time.Second)
	mock.ExpectQuery(`SELECT broken`).WillReturnError(errors.New("syntax error at or near broken"))

	ctx := context.Background()
	handle, err := runner.Submit(ctx, "SELECT broken")
	require.NoError(t, err)
	runner.Wait()

	execution, err := runner.registry.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, entities.ExecutionFailed, execution.Status)
	assert.Contains(t, execution.Error, "syntax error")
	assert.NotNil(t, execution.CompletedAt)

	_, err = runner.FetchRows(ctx, handle)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
}

func TestSQLRunner_CancelMarksCancelled(t *testing.T) {
	runner, mock := newTestRunner(t, 0)
	mock.ExpectQuery(`SELECT pg_sleep`).
		WillDelayFor(5 * time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))

	ctx := context.Background()
	handle, err := runner.Submit(ctx, "SELECT pg_sleep(10)")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, _ := runner.PollStatus(ctx, handle)
		return status == entities.ExecutionRunning
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, 1, runner.InFlight())
	require.NoError(t, runner.Cancel(ctx, handle))
	runner.Wait()

	status, err := runner.PollStatus(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, entities.ExecutionCancelled, status)
	assert.Zero(t, runner.InFlight())
	assert.NoError(t, runner.Cancel(ctx, handle))
}

func TestSQLRunner_TimeoutMarksFailed(t *testing.T) {
	runner, mock := newTestRunner(t, 20*time.Millisecond)
	mock.ExpectQuery(`SELECT slow`).
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))

	ctx := context.Background()
	handle, err := runner.Submit(ctx, "SELECT slow")
	require.NoError(t, err)
	runner.Wait()

	execution, err := runner.registry.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, entities.ExecutionFailed, execution.Status)
	assert.Contains(t, execution.Error, "exceeded")
}

func TestSQLRunner_UnknownHandle(t *testing.T) {
	runner, _ := newTestRunner(t, time.Second)
	_, err := runner.PollStatus(context.Background(), "nope")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "abc", normalizeValue([]byte("abc")))
	assert.Equal(t, "2024-01-02T03:04:05Z", normalizeValue(ts))
	assert.Equal(t, int64(7), normalizeValue(int64(7)))
}

func TestMemoryRegistry_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry(time.Minute)

	execution := &entities.QueryExecution{ID: "e1", Status: entities.ExecutionQueued}
	require.NoError(t, reg.Save(ctx, execution))
	execution.Status = entities.ExecutionFailed

	got, err := reg.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, entities.ExecutionQueued, got.Status)

	_, err = reg.Rows(ctx, "e1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
