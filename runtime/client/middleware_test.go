package client

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareChainOrder(t *testing.T) {
	var calls []string
	record := func(name string) Middleware {
		return func(ctx context.Context, event *QueryEvent, next func() error) error {
			calls = append(calls, name+":before")
			err := next()
			calls = append(calls, name+":after")
			return err
		}
	}

	c := newSQLiteClient(t, WithMiddleware(record("first")))
	c.Use(record("second"))

	_, err := c.FetchAll(context.Background(), "SELECT 1")
	require.NoError(t, err)

	assert.Equal(t, []string{"first:before", "second:before", "second:after", "first:after"}, calls)
}

func TestMiddlewareSeesEvent(t *testing.T) {
	var seen QueryEvent
	c := newSQLiteClient(t, WithMiddleware(func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		seen = *event
		return err
	}))

	_, err := c.FetchAll(context.Background(), "SELECT * FROM missing WHERE id = ?", 1)
	require.Error(t, err)

	assert.Equal(t, "SELECT * FROM missing WHERE id = ?", seen.Query)
	assert.Equal(t, []any{1}, seen.Args)
	assert.Equal(t, "sqlite", seen.Provider)
	assert.Equal(t, err, seen.Error)
	assert.False(t, seen.End.Before(seen.Start))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newSQLiteClient(t, WithMiddleware(LoggingMiddleware(logger)))
	ctx := context.Background()

	_, err := c.FetchAll(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "query executed")

	buf.Reset()
	_, err = c.FetchAll(ctx, "SELECT * FROM missing")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "query failed")
}

func TestTimingMiddleware(t *testing.T) {
	var got []string
	c := newSQLiteClient(t, WithMiddleware(TimingMiddleware(func(query string, d time.Duration) {
		got = append(got, query)
		assert.GreaterOrEqual(t, d, time.Duration(0))
	})))

	_, err := c.Exec(context.Background(), "CREATE TABLE t (id INTEGER)")
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE t (id INTEGER)"}, got)
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := newSQLiteClient(t, WithMiddleware(m.Middleware()))
	ctx := context.Background()

	_, err := c.FetchAll(ctx, "SELECT 1")
	require.NoError(t, err)
	_, err = c.FetchOne(ctx, "SELECT 2")
	require.NoError(t, err)
	_, err = c.FetchAll(ctx, "SELECT * FROM missing")
	require.Error(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Queries("sqlite", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Queries("sqlite", "error")))

	count, err := testutil.GatherAndCount(reg, "pgquery_query_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
