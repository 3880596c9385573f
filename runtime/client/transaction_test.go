package client

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTransactionCommits(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := c.RunTransaction(context.Background(), "UPDATE accounts SET balance = balance - $1 WHERE id = $2", 5, 1)
	require.NoError(t, err)

	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTransactionRollsBackAndReturnsOriginalError(t *testing.T) {
	c, mock := newMockClient(t)
	violation := errors.New("duplicate key value violates unique constraint")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WithArgs("a").WillReturnError(violation)
	mock.ExpectRollback()

	result, err := c.RunTransaction(context.Background(), "INSERT INTO users (name) VALUES ($1)", "a")
	assert.Nil(t, result)
	assert.Same(t, violation, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTransactionReportsRollbackFailure(t *testing.T) {
	c, mock := newMockClient(t)
	violation := errors.New("check constraint violated")
	rbErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts").WillReturnError(violation)
	mock.ExpectRollback().WillReturnError(rbErr)

	_, err := c.RunTransaction(context.Background(), "UPDATE accounts SET balance = 0")
	assert.ErrorIs(t, err, violation)
	assert.ErrorIs(t, err, rbErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTransactionCommitFailure(t *testing.T) {
	c, mock := newMockClient(t)
	commitErr := errors.New("could not serialize access")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM sessions").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit().WillReturnError(commitErr)

	_, err := c.RunTransaction(context.Background(), "DELETE FROM sessions")
	assert.ErrorIs(t, err, commitErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = c.Transaction(context.Background(), func(tx *Tx) error {
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFailingStatementLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteClient(t)

	_, err := c.Exec(ctx, "CREATE TABLE accounts (id INTEGER PRIMARY KEY, balance INTEGER NOT NULL CHECK (balance >= 0))")
	require.NoError(t, err)
	_, err = c.Exec(ctx, "INSERT INTO accounts (id, balance) VALUES (1, 10)")
	require.NoError(t, err)

	_, err = c.RunTransaction(ctx, "UPDATE accounts SET balance = balance - ? WHERE id = ?", 20, 1)
	require.Error(t, err)
	var sqliteErr sqlite3.Error
	assert.ErrorAs(t, err, &sqliteErr)

	row, err := c.FetchOne(ctx, "SELECT balance FROM accounts WHERE id = ?", 1)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(10), row.Value("balance"))

	result, err := c.RunTransaction(ctx, "UPDATE accounts SET balance = balance - ? WHERE id = ?", 4, 1)
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	row, err = c.FetchOne(ctx, "SELECT balance FROM accounts WHERE id = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), row.Value("balance"))
}

func TestTransactionSeesItsOwnWrites(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteClient(t)
	seedUsers(t, c)
	abort := errors.New("abort")

	err := c.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM users"); err != nil {
			return err
		}
		rows, err := tx.FetchAll(ctx, "SELECT id FROM users")
		if err != nil {
			return err
		}
		assert.Empty(t, rows)

		return tx.WithCursor(func(cur *Cursor) error {
			if err := cur.Execute(ctx, "SELECT COUNT(*) AS n FROM users"); err != nil {
				return err
			}
			row, err := cur.FetchOne()
			if err != nil {
				return err
			}
			assert.Equal(t, int64(0), row.Value("n"))
			return abort
		})
	})
	assert.ErrorIs(t, err, abort)

	rows, err := c.FetchAll(ctx, "SELECT id FROM users")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestReadOnlyTransactionOptions(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	var got *int64
	err := c.ReadOnlyTransaction(context.Background(), func(tx *Tx) error {
		row, err := tx.FetchOne(context.Background(), "SELECT id FROM users")
		if err != nil {
			return err
		}
		id := row.Value("id").(int64)
		got = &id
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), *got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsolationLevelMapping(t *testing.T) {
	assert.Equal(t, sql.LevelReadUncommitted, ReadUncommitted.ToSQLIsolationLevel())
	assert.Equal(t, sql.LevelReadCommitted, ReadCommitted.ToSQLIsolationLevel())
	assert.Equal(t, sql.LevelRepeatableRead, RepeatableRead.ToSQLIsolationLevel())
	assert.Equal(t, sql.LevelSerializable, Serializable.ToSQLIsolationLevel())
	assert.Equal(t, sql.LevelReadCommitted, IsolationLevel(42).ToSQLIsolationLevel())

	opts := NewTxOptions(Serializable, true)
	assert.Equal(t, sql.LevelSerializable, opts.Isolation)
	assert.True(t, opts.ReadOnly)
}
