package client

import "log/slog"

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger used for connection events
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMiddleware appends middlewares to the query chain
func WithMiddleware(middlewares ...Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// WithDriverName overrides the driver registered with database/sql.
// Useful for wrapped or instrumented drivers.
func WithDriverName(name string) Option {
	return func(c *Client) {
		c.driverName = name
	}
}
