package client

import (
	"context"
	"database/sql"

	"github.com/satishbabariya/pgquery/runtime/types"
)

// FetchAll runs query and returns every resulting row
func (c *Client) FetchAll(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return fetchAll(ctx, c, c.conn, query, args)
}

// FetchOne runs query and returns its first row, or nil when the result is
// empty.
func (c *Client) FetchOne(ctx context.Context, query string, args ...any) (*types.Row, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return fetchOne(ctx, c, c.conn, query, args)
}

// Exec runs a statement outside of an explicit transaction. Whether it is
// committed follows the driver's autocommit behaviour.
func (c *Client) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return execOne(ctx, c, c.conn, query, args)
}

func fetchAll(ctx context.Context, c *Client, ex execer, query string, args []any) ([]types.Row, error) {
	var rows []types.Row
	err := withCursor(c, ex, func(cur *Cursor) error {
		if err := cur.Execute(ctx, query, args...); err != nil {
			return err
		}
		var err error
		rows, err = cur.FetchAll()
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func fetchOne(ctx context.Context, c *Client, ex execer, query string, args []any) (*types.Row, error) {
	var row *types.Row
	err := withCursor(c, ex, func(cur *Cursor) error {
		if err := cur.Execute(ctx, query, args...); err != nil {
			return err
		}
		var err error
		row, err = cur.FetchOne()
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func execOne(ctx context.Context, c *Client, ex execer, query string, args []any) (sql.Result, error) {
	var result sql.Result
	err := withCursor(c, ex, func(cur *Cursor) error {
		var err error
		result, err = cur.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
