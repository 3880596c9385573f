// Package client provides transaction support.
package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/pgquery/runtime/types"
)

// IsolationLevel represents transaction isolation levels
type IsolationLevel int

const (
	// ReadUncommitted allows dirty reads
	ReadUncommitted IsolationLevel = iota
	// ReadCommitted prevents dirty reads (default)
	ReadCommitted
	// RepeatableRead prevents dirty reads and non-repeatable reads
	RepeatableRead
	// Serializable prevents dirty reads, non-repeatable reads, and phantom reads
	Serializable
)

// ToSQLIsolationLevel converts IsolationLevel to sql.IsolationLevel
func (level IsolationLevel) ToSQLIsolationLevel() sql.IsolationLevel {
	switch level {
	case ReadUncommitted:
		return sql.LevelReadUncommitted
	case ReadCommitted:
		return sql.LevelReadCommitted
	case RepeatableRead:
		return sql.LevelRepeatableRead
	case Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelReadCommitted
	}
}

// NewTxOptions creates sql.TxOptions from isolation level
func NewTxOptions(isolation IsolationLevel, readOnly bool) *sql.TxOptions {
	return &sql.TxOptions{
		Isolation: isolation.ToSQLIsolationLevel(),
		ReadOnly:  readOnly,
	}
}

// Tx is a transaction on the client's connection
type Tx struct {
	tx     *sql.Tx
	client *Client
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(tx *Tx) error

// RunTransaction executes a single statement and commits it. On any failure
// the transaction is rolled back and the statement's error is returned.
func (c *Client) RunTransaction(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := c.Transaction(ctx, func(tx *Tx) error {
		var err error
		result, err = tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Transaction executes a function within a database transaction
// If the function returns an error, the transaction is rolled back
// Otherwise, the transaction is committed
func (c *Client) Transaction(ctx context.Context, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, nil, fn)
}

// TransactionWithOptions executes a transaction with custom options
func (c *Client) TransactionWithOptions(ctx context.Context, opts *sql.TxOptions, fn TransactionFunc) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	sqlTx, err := c.conn.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	tx := &Tx{tx: sqlTx, client: c}

	// Defer rollback in case of panic
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %w)", err, rbErr)
		}
		c.logger.Debug("transaction rolled back", "error", err)
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// TransactionWithIsolation executes a transaction with a specific isolation level
func (c *Client) TransactionWithIsolation(ctx context.Context, isolation IsolationLevel, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, NewTxOptions(isolation, false), fn)
}

// ReadOnlyTransaction executes a read-only transaction
func (c *Client) ReadOnlyTransaction(ctx context.Context, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

// WithCursor hands fn a cursor bound to the transaction
func (tx *Tx) WithCursor(fn func(cur *Cursor) error) error {
	return withCursor(tx.client, tx.tx, fn)
}

// Exec runs a statement inside the transaction
func (tx *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return execOne(ctx, tx.client, tx.tx, query, args)
}

// FetchAll runs query inside the transaction and returns every row
func (tx *Tx) FetchAll(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	return fetchAll(ctx, tx.client, tx.tx, query, args)
}

// FetchOne runs query inside the transaction and returns its first row or nil
func (tx *Tx) FetchOne(ctx context.Context, query string, args ...any) (*types.Row, error) {
	return fetchOne(ctx, tx.client, tx.tx, query, args)
}
