package introspect

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/pgquery/runtime/types"
)

type cannedResult struct {
	match   string
	columns []string
	rows    [][]any
	err     error
}

type recordedQuery struct {
	query string
	args  []any
}

// fakeQuerier answers queries with the first canned result whose match
// string the query contains
type fakeQuerier struct {
	results []cannedResult
	calls   []recordedQuery
}

func (f *fakeQuerier) on(match string, columns []string, rows ...[]any) *fakeQuerier {
	f.results = append(f.results, cannedResult{match: match, columns: columns, rows: rows})
	return f
}

func (f *fakeQuerier) fail(match string, err error) *fakeQuerier {
	f.results = append(f.results, cannedResult{match: match, err: err})
	return f
}

func (f *fakeQuerier) FetchAll(_ context.Context, query string, args ...any) ([]types.Row, error) {
	f.calls = append(f.calls, recordedQuery{query: query, args: args})
	for _, res := range f.results {
		if !strings.Contains(query, res.match) {
			continue
		}
		if res.err != nil {
			return nil, res.err
		}
		rows := make([]types.Row, 0, len(res.rows))
		for _, values := range res.rows {
			rows = append(rows, types.NewRow(res.columns, values))
		}
		return rows, nil
	}
	return []types.Row{}, nil
}

func (f *fakeQuerier) FetchOne(ctx context.Context, query string, args ...any) (*types.Row, error) {
	rows, err := f.FetchAll(ctx, query, args...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func newFakeInspector(t *testing.T, q *fakeQuerier) *Inspector {
	t.Helper()

	i, err := New(q, "postgresql")
	require.NoError(t, err)
	return i
}

func TestNewProviders(t *testing.T) {
	for _, provider := range []string{"postgresql", "postgres", "cockroachdb", "cockroach"} {
		_, err := New(&fakeQuerier{}, provider)
		assert.NoError(t, err, provider)
	}

	for _, provider := range []string{"mysql", "sqlite", ""} {
		_, err := New(&fakeQuerier{}, provider)
		assert.ErrorIs(t, err, ErrUnsupportedProvider, provider)
	}
}

func TestMapPostgresType(t *testing.T) {
	tests := []struct {
		dataType  string
		udtName   string
		maxLength int64
		precision int64
		scale     int64
		want      string
	}{
		{"integer", "int4", 0, 32, 0, "INTEGER"},
		{"character varying", "varchar", 255, 0, 0, "VARCHAR(255)"},
		{"character varying", "varchar", 0, 0, 0, "VARCHAR"},
		{"numeric", "numeric", 0, 10, 2, "DECIMAL(10,2)"},
		{"timestamp with time zone", "timestamptz", 0, 0, 0, "TIMESTAMPTZ"},
		{"ARRAY", "_text", 0, 0, 0, "text[]"},
		{"USER-DEFINED", "mood", 0, 0, 0, "mood"},
		{"tsvector", "tsvector", 0, 0, 0, "tsvector"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapPostgresType(tt.dataType, tt.udtName, tt.maxLength, tt.precision, tt.scale), tt.dataType)
	}
}

func TestIsAutoIncrement(t *testing.T) {
	assert.True(t, isAutoIncrement("nextval('users_id_seq'::regclass)"))
	assert.True(t, isAutoIncrement("unique_rowid()"))
	assert.False(t, isAutoIncrement("'a'::text"))
	assert.False(t, isAutoIncrement(""))
}
