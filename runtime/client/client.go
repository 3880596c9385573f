// Package client provides the runtime database client for pgquery.
//
// A Client lazily opens a single connection and runs every statement on it.
// It is not safe for concurrent use; callers must serialize access to one
// instance.
package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/satishbabariya/pgquery/internal/debug"
)

// Client is the main database client
type Client struct {
	provider   string
	driverName string
	dsn        string

	db     *sql.DB
	ownsDB bool
	conn   *sql.Conn

	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a client for the given provider and connection string.
// No connection is opened until the first query or an explicit Connect.
func New(provider string, dsn string, opts ...Option) (*Client, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	c := &Client{
		provider: provider,
		dsn:      dsn,
		ownsDB:   true,
	}
	c.apply(opts)

	if c.driverName == "" {
		c.driverName = DriverName(provider)
		if c.driverName == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
		}
	}

	return c, nil
}

// NewFromDB creates a client from an existing database handle.
// The client takes one connection from db and never closes db itself.
func NewFromDB(provider string, db *sql.DB, opts ...Option) (*Client, error) {
	if db == nil {
		return nil, ErrNilDB
	}

	c := &Client{
		provider: provider,
		db:       db,
	}
	c.apply(opts)

	return c, nil
}

func (c *Client) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = debug.With("component", "client")
	}
}

// DriverName maps provider names to Go database driver names
func DriverName(provider string) string {
	switch provider {
	case "postgresql", "postgres", "cockroachdb", "cockroach":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return ""
	}
}

// Provider returns the provider name the client was created with
func (c *Client) Provider() string {
	return c.provider
}

// Connect establishes the database connection.
// It is a no-op while the current connection is open; a closed or broken
// connection is replaced.
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		if !connClosed(c.conn) {
			return nil
		}
		c.logger.Debug("connection closed, reconnecting", "provider", c.provider)
		c.conn = nil
	}

	if c.db == nil {
		db, err := sql.Open(c.driverName, c.dsn)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}
		// one physical connection per client
		db.SetMaxOpenConns(1)
		c.db = db
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	c.conn = conn

	c.logger.Debug("connected", "provider", c.provider)
	return nil
}

// Connected reports whether the client holds an open connection
func (c *Client) Connected() bool {
	return c.conn != nil && !connClosed(c.conn)
}

// Close releases the connection and, when the client opened it, the
// underlying handle. A later query reconnects.
func (c *Client) Close() error {
	var errs []error

	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, err)
		}
		c.conn = nil
	}

	if c.ownsDB && c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, err)
		}
		c.db = nil
	}

	c.logger.Debug("disconnected", "provider", c.provider)
	return errors.Join(errs...)
}

// connClosed reports whether conn was closed, either explicitly or by
// database/sql after the driver reported a bad connection.
func connClosed(conn *sql.Conn) bool {
	err := conn.Raw(func(any) error { return nil })
	return errors.Is(err, sql.ErrConnDone)
}
