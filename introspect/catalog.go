package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/satishbabariya/pgquery/runtime/types"
)

const (
	// DefaultSchema is used by GetTablePreview and Describe when no schema is given
	DefaultSchema = "public"
	// DefaultPreviewLimit is used by GetTablePreview for non-positive limits
	DefaultPreviewLimit = 10
)

const schemaDetailsQuery = `
SELECT schema_name, schema_owner
FROM information_schema.schemata
WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'crdb_internal', 'pg_extension')
  AND schema_name NOT LIKE 'pg_toast%'
  AND schema_name NOT LIKE 'pg_temp%'`

const tableDetailsQuery = `
SELECT table_schema, table_name, table_type
FROM information_schema.tables
WHERE table_schema NOT IN ('information_schema', 'pg_catalog', 'crdb_internal', 'pg_extension')
  AND table_schema NOT LIKE 'pg_toast%'
  AND table_schema NOT LIKE 'pg_temp%'`

const columnDetailsQuery = `
SELECT
	table_schema,
	table_name,
	column_name,
	ordinal_position,
	data_type,
	udt_name,
	is_nullable,
	column_default,
	character_maximum_length,
	numeric_precision,
	numeric_scale
FROM information_schema.columns
WHERE table_schema NOT IN ('information_schema', 'pg_catalog', 'crdb_internal', 'pg_extension')
  AND table_schema NOT LIKE 'pg_toast%'
  AND table_schema NOT LIKE 'pg_temp%'`

// filteredQuery appends optional equality filters and an ORDER BY clause to
// a base query that already has a WHERE clause. Values are bound as $n
// parameters.
type filteredQuery struct {
	sb   strings.Builder
	args []any
}

func newFilteredQuery(base string) *filteredQuery {
	q := &filteredQuery{}
	q.sb.WriteString(base)
	return q
}

// where adds "AND column = $n" when value is not empty
func (q *filteredQuery) where(column, value string) *filteredQuery {
	if value == "" {
		return q
	}
	q.args = append(q.args, value)
	fmt.Fprintf(&q.sb, "\n  AND %s = $%d", column, len(q.args))
	return q
}

func (q *filteredQuery) orderBy(columns string) (string, []any) {
	q.sb.WriteString("\nORDER BY ")
	q.sb.WriteString(columns)
	return q.sb.String(), q.args
}

func schemaDetailsSQL(schemaName string) (string, []any) {
	return newFilteredQuery(schemaDetailsQuery).
		where("schema_name", schemaName).
		orderBy("schema_name")
}

func tableDetailsSQL(schemaName, tableName string) (string, []any) {
	return newFilteredQuery(tableDetailsQuery).
		where("table_schema", schemaName).
		where("table_name", tableName).
		orderBy("table_schema, table_name")
}

func columnDetailsSQL(schemaName, tableName string) (string, []any) {
	return newFilteredQuery(columnDetailsQuery).
		where("table_schema", schemaName).
		where("table_name", tableName).
		orderBy("table_schema, table_name, ordinal_position")
}

// previewSQL builds the table preview query. Identifiers cannot be bound as
// parameters, so they are quoted instead; quoting also makes them
// case-sensitive.
func previewSQL(tableName, schemaName string, limit int) (string, []any, error) {
	if tableName == "" {
		return "", nil, fmt.Errorf("%w: table name", ErrEmptyIdentifier)
	}
	if schemaName == "" {
		schemaName = DefaultSchema
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	query := fmt.Sprintf("SELECT * FROM %s.%s LIMIT $1",
		pq.QuoteIdentifier(schemaName),
		pq.QuoteIdentifier(tableName),
	)
	return query, []any{limit}, nil
}

// GetSchemaDetails lists non-system schemas, optionally only schemaName
func (i *Inspector) GetSchemaDetails(ctx context.Context, schemaName string) ([]types.Row, error) {
	query, args := schemaDetailsSQL(schemaName)
	return i.q.FetchAll(ctx, query, args...)
}

// GetTableDetails lists tables and views of non-system schemas. Empty
// arguments disable the corresponding filter.
func (i *Inspector) GetTableDetails(ctx context.Context, schemaName, tableName string) ([]types.Row, error) {
	query, args := tableDetailsSQL(schemaName, tableName)
	return i.q.FetchAll(ctx, query, args...)
}

// GetAllColumnDetails lists columns of non-system schemas in ordinal order.
// Empty arguments disable the corresponding filter.
func (i *Inspector) GetAllColumnDetails(ctx context.Context, schemaName, tableName string) ([]types.Row, error) {
	query, args := columnDetailsSQL(schemaName, tableName)
	return i.q.FetchAll(ctx, query, args...)
}

// GetTablePreview returns up to limit rows of schemaName.tableName.
// schemaName defaults to "public" and limit to DefaultPreviewLimit.
func (i *Inspector) GetTablePreview(ctx context.Context, tableName, schemaName string, limit int) ([]types.Row, error) {
	query, args, err := previewSQL(tableName, schemaName, limit)
	if err != nil {
		return nil, err
	}
	return i.q.FetchAll(ctx, query, args...)
}
