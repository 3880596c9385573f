package client

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/satishbabariya/pgquery/runtime/types"
)

// execer is satisfied by *sql.Conn and *sql.Tx
type execer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Cursor executes statements on the client's connection and iterates their
// results. A cursor is only valid inside the WithCursor callback that
// created it.
type Cursor struct {
	client *Client
	ex     execer

	rows    *sql.Rows
	columns []string
	binary  []bool
	closed  bool
}

// WithCursor connects if needed, hands a cursor to fn and closes the cursor
// on every exit path.
func (c *Client) WithCursor(ctx context.Context, fn func(cur *Cursor) error) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return withCursor(c, c.conn, fn)
}

func withCursor(c *Client, ex execer, fn func(cur *Cursor) error) (err error) {
	cur := &Cursor{client: c, ex: ex}
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(cur)
}

// Execute runs a statement and keeps its result set for fetching.
// Arguments are bound by the driver, never interpolated.
func (cur *Cursor) Execute(ctx context.Context, query string, args ...any) error {
	if cur.closed {
		return ErrCursorClosed
	}
	if err := cur.closeRows(); err != nil {
		return err
	}

	return cur.client.intercept(ctx, query, args, func() error {
		rows, err := cur.ex.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}

		columns, err := rows.Columns()
		if err != nil {
			rows.Close()
			return err
		}

		cur.rows = rows
		cur.columns = columns
		return nil
	})
}

// Exec runs a statement that returns no rows
func (cur *Cursor) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if cur.closed {
		return nil, ErrCursorClosed
	}
	if err := cur.closeRows(); err != nil {
		return nil, err
	}

	var result sql.Result
	err := cur.client.intercept(ctx, query, args, func() error {
		var err error
		result, err = cur.ex.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Columns returns the column names of the current result set
func (cur *Cursor) Columns() []string {
	out := make([]string, len(cur.columns))
	copy(out, cur.columns)
	return out
}

// FetchAll returns every remaining row of the current result set.
// An empty result yields an empty, non-nil slice.
func (cur *Cursor) FetchAll() ([]types.Row, error) {
	if cur.closed {
		return nil, ErrCursorClosed
	}
	if cur.rows == nil {
		return nil, ErrNoResultSet
	}

	result := []types.Row{}
	for {
		row, ok, err := cur.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		result = append(result, row)
	}
}

// FetchOne returns the next row of the current result set, or nil when the
// result set is exhausted.
func (cur *Cursor) FetchOne() (*types.Row, error) {
	if cur.closed {
		return nil, ErrCursorClosed
	}
	if cur.rows == nil {
		return nil, ErrNoResultSet
	}

	row, ok, err := cur.next()
	if err != nil || !ok {
		return nil, err
	}
	return &row, nil
}

func (cur *Cursor) next() (types.Row, bool, error) {
	if !cur.rows.Next() {
		return types.Row{}, false, cur.rows.Err()
	}

	values := make([]any, len(cur.columns))
	ptrs := make([]any, len(cur.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := cur.rows.Scan(ptrs...); err != nil {
		return types.Row{}, false, err
	}

	for i, v := range values {
		if b, ok := v.([]byte); ok && !cur.isBinary(i) {
			values[i] = string(b)
		}
	}

	return types.NewRow(cur.columns, values), true, nil
}

// isBinary reports whether column i holds raw bytes. Column types are only
// looked up once a []byte value shows up.
func (cur *Cursor) isBinary(i int) bool {
	if cur.binary == nil {
		cur.binary = make([]bool, len(cur.columns))
		colTypes, err := cur.rows.ColumnTypes()
		if err != nil {
			return false
		}
		for j, ct := range colTypes {
			cur.binary[j] = isBinaryType(ct.DatabaseTypeName())
		}
	}
	return cur.binary[i]
}

// Close releases the current result set. Closing twice is a no-op.
func (cur *Cursor) Close() error {
	if cur.closed {
		return nil
	}
	cur.closed = true
	return cur.closeRows()
}

func (cur *Cursor) closeRows() error {
	if cur.rows == nil {
		return nil
	}
	rows := cur.rows
	cur.rows = nil
	cur.columns = nil
	cur.binary = nil

	if err := rows.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}

// isBinaryType reports whether a driver type name carries raw bytes
func isBinaryType(name string) bool {
	switch strings.ToUpper(name) {
	case "BYTEA", "BLOB", "BINARY", "VARBINARY", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB":
		return true
	default:
		return false
	}
}
