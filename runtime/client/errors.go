package client

import "errors"

var (
	// ErrConnectionFailed wraps every failure to open a connection
	ErrConnectionFailed = errors.New("failed to connect to database")
	// ErrUnsupportedProvider is returned for unknown provider names
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrMissingDSN is returned when no connection string is given
	ErrMissingDSN = errors.New("connection string is required")
	// ErrNilDB is returned by NewFromDB for a nil handle
	ErrNilDB = errors.New("database handle is nil")
	// ErrCursorClosed is returned when a closed cursor is used
	ErrCursorClosed = errors.New("cursor is closed")
	// ErrNoResultSet is returned when fetching before a statement produced rows
	ErrNoResultSet = errors.New("no result set to fetch from")
)
