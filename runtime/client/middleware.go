// Package client provides middleware support for query hooks.
package client

import (
	"context"
	"log/slog"
	"time"
)

// QueryEvent represents a query execution event
type QueryEvent struct {
	Query    string
	Args     []any
	Provider string
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware is a function that intercepts statement execution.
// It must call next exactly once and return its error unchanged unless it
// deliberately replaces it.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// Use adds middlewares to the chain. They run in the order they were added.
func (c *Client) Use(middlewares ...Middleware) {
	c.middlewares = append(c.middlewares, middlewares...)
}

// intercept executes exec through the middleware chain
func (c *Client) intercept(ctx context.Context, query string, args []any, exec func() error) error {
	if len(c.middlewares) == 0 {
		return exec()
	}

	event := &QueryEvent{
		Query:    query,
		Args:     args,
		Provider: c.provider,
		Start:    time.Now(),
	}

	var next func() error
	index := 0

	next = func() error {
		if index >= len(c.middlewares) {
			// Last middleware, execute the actual query
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}

		middleware := c.middlewares[index]
		index++
		return middleware(ctx, event, next)
	}

	return next()
}

// LoggingMiddleware logs every statement at debug level and failures at warn
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil {
			logger.WarnContext(ctx, "query failed",
				"query", event.Query,
				"args", len(event.Args),
				"duration", event.Duration,
				"error", err,
			)
			return err
		}
		logger.DebugContext(ctx, "query executed",
			"query", event.Query,
			"args", len(event.Args),
			"duration", event.Duration,
		)
		return nil
	}
}

// TimingMiddleware creates a middleware that measures query execution time
func TimingMiddleware(onTiming func(query string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Query, event.Duration)
		}
		return err
	}
}
