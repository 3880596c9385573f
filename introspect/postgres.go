package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/satishbabariya/pgquery/runtime/client"
)

type tableRecord struct {
	Schema string `db:"table_schema"`
	Name   string `db:"table_name"`
	Type   string `db:"table_type"`
}

type columnRecord struct {
	TableName  string         `db:"table_name"`
	Name       string         `db:"column_name"`
	Position   int            `db:"ordinal_position"`
	DataType   string         `db:"data_type"`
	UDTName    string         `db:"udt_name"`
	IsNullable string         `db:"is_nullable"`
	Default    sql.NullString `db:"column_default"`
	MaxLength  sql.NullInt64  `db:"character_maximum_length"`
	Precision  sql.NullInt64  `db:"numeric_precision"`
	Scale      sql.NullInt64  `db:"numeric_scale"`
}

type primaryKeyRecord struct {
	TableName string         `db:"table_name"`
	Name      string         `db:"constraint_name"`
	Columns   pq.StringArray `db:"columns"`
}

type indexRecord struct {
	TableName string         `db:"table_name"`
	Name      string         `db:"index_name"`
	Columns   pq.StringArray `db:"columns"`
	IsUnique  bool           `db:"is_unique"`
}

type foreignKeyRecord struct {
	TableName         string         `db:"table_name"`
	Name              string         `db:"constraint_name"`
	Columns           pq.StringArray `db:"columns"`
	ReferencedSchema  string         `db:"referenced_schema"`
	ReferencedTable   string         `db:"referenced_table"`
	ReferencedColumns pq.StringArray `db:"referenced_columns"`
	OnUpdate          string         `db:"on_update"`
	OnDelete          string         `db:"on_delete"`
}

type enumRecord struct {
	Name   string         `db:"enum_name"`
	Values pq.StringArray `db:"enum_values"`
}

type viewRecord struct {
	Name       string         `db:"table_name"`
	Definition sql.NullString `db:"view_definition"`
}

type sequenceRecord struct {
	Name      string        `db:"sequence_name"`
	DataType  string        `db:"data_type"`
	LastValue sql.NullInt64 `db:"last_value"`
}

const primaryKeysQuery = `
SELECT
	tc.table_name,
	tc.constraint_name,
	array_agg(kcu.column_name::text ORDER BY kcu.ordinal_position) AS columns
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
	ON tc.constraint_name = kcu.constraint_name
	AND tc.table_schema = kcu.table_schema
	AND tc.table_name = kcu.table_name
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema = $1
GROUP BY tc.table_name, tc.constraint_name
ORDER BY tc.table_name`

const indexesQuery = `
SELECT
	t.relname AS table_name,
	i.relname AS index_name,
	array_agg(a.attname::text ORDER BY array_position(ix.indkey::int2[], a.attnum)) AS columns,
	ix.indisunique AS is_unique
FROM pg_class t
JOIN pg_index ix ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
JOIN pg_namespace n ON n.oid = t.relnamespace
WHERE n.nspname = $1
  AND NOT ix.indisprimary
GROUP BY t.relname, i.relname, ix.indisunique
ORDER BY t.relname, i.relname`

// conkey and confkey are parallel arrays, unnested together so each
// referencing column stays paired with its referenced column.
const foreignKeysQuery = `
SELECT
	cl.relname AS table_name,
	con.conname AS constraint_name,
	array_agg(att.attname::text ORDER BY k.ord) AS columns,
	rn.nspname AS referenced_schema,
	rcl.relname AS referenced_table,
	array_agg(ratt.attname::text ORDER BY k.ord) AS referenced_columns,
	CASE con.confupdtype
		WHEN 'c' THEN 'CASCADE'
		WHEN 'n' THEN 'SET NULL'
		WHEN 'd' THEN 'SET DEFAULT'
		WHEN 'r' THEN 'RESTRICT'
		ELSE 'NO ACTION'
	END AS on_update,
	CASE con.confdeltype
		WHEN 'c' THEN 'CASCADE'
		WHEN 'n' THEN 'SET NULL'
		WHEN 'd' THEN 'SET DEFAULT'
		WHEN 'r' THEN 'RESTRICT'
		ELSE 'NO ACTION'
	END AS on_delete
FROM pg_constraint con
JOIN pg_class cl ON cl.oid = con.conrelid
JOIN pg_namespace n ON n.oid = cl.relnamespace
JOIN pg_class rcl ON rcl.oid = con.confrelid
JOIN pg_namespace rn ON rn.oid = rcl.relnamespace
CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refattnum, ord)
JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = k.attnum
JOIN pg_attribute ratt ON ratt.attrelid = con.confrelid AND ratt.attnum = k.refattnum
WHERE con.contype = 'f'
  AND n.nspname = $1
GROUP BY cl.relname, con.conname, rn.nspname, rcl.relname, con.confupdtype, con.confdeltype
ORDER BY cl.relname, con.conname`


const enumsQuery = `
SELECT
	t.typname AS enum_name,
	array_agg(e.enumlabel::text ORDER BY e.enumsortorder) AS enum_values
FROM pg_type t
JOIN pg_enum e ON t.oid = e.enumtypid
JOIN pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname = $1
GROUP BY t.typname
ORDER BY t.typname`

const viewsQuery = `
SELECT table_name, view_definition
FROM information_schema.views
WHERE table_schema = $1
ORDER BY table_name`

const pgSequencesQuery = `
SELECT sequencename AS sequence_name, data_type::text AS data_type, last_value
FROM pg_sequences
WHERE schemaname = $1
ORDER BY sequencename`

const infoSchemaSequencesQuery = `
SELECT sequence_name, data_type, NULL::bigint AS last_value
FROM information_schema.sequences
WHERE sequence_schema = $1
ORDER BY sequence_name`

// Describe reads the tables, enums, views and sequences of one schema.
// An empty schemaName means "public".
func (i *Inspector) Describe(ctx context.Context, schemaName string) (*DatabaseSchema, error) {
	if schemaName == "" {
		schemaName = DefaultSchema
	}

	schema := &DatabaseSchema{
		Schema:    schemaName,
		Tables:    []Table{},
		Enums:     []Enum{},
		Views:     []View{},
		Sequences: []Sequence{},
	}

	tables, err := i.describeTables(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect tables: %w", err)
	}
	schema.Tables = tables

	enums, err := i.describeEnums(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect enums: %w", err)
	}
	schema.Enums = enums

	views, err := i.describeViews(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect views: %w", err)
	}
	schema.Views = views

	sequences, err := i.describeSequences(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect sequences: %w", err)
	}
	schema.Sequences = sequences

	return schema, nil
}

// fetchAs runs query and decodes every row into T
func fetchAs[T any](ctx context.Context, q Querier, query string, args ...any) ([]T, error) {
	rows, err := q.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return client.DecodeAll[T](rows)
}

// describeTables reads base tables with their columns, keys and indexes
func (i *Inspector) describeTables(ctx context.Context, schemaName string) ([]Table, error) {
	query, args := tableDetailsSQL(schemaName, "")
	records, err := fetchAs[tableRecord](ctx, i.q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	tables := []Table{}
	byName := make(map[string]int)
	for _, rec := range records {
		if rec.Type != "BASE TABLE" {
			continue
		}
		byName[rec.Name] = len(tables)
		tables = append(tables, Table{Name: rec.Name, Schema: rec.Schema})
	}
	if len(tables) == 0 {
		return tables, nil
	}

	query, args = columnDetailsSQL(schemaName, "")
	columns, err := fetchAs[columnRecord](ctx, i.q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	for _, rec := range columns {
		idx, ok := byName[rec.TableName]
		if !ok {
			continue
		}
		tables[idx].Columns = append(tables[idx].Columns, rec.column())
	}

	pks, err := fetchAs[primaryKeyRecord](ctx, i.q, primaryKeysQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}
	for _, rec := range pks {
		if idx, ok := byName[rec.TableName]; ok {
			tables[idx].PrimaryKey = &PrimaryKey{Name: rec.Name, Columns: rec.Columns}
		}
	}

	indexes, err := fetchAs[indexRecord](ctx, i.q, indexesQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	for _, rec := range indexes {
		if idx, ok := byName[rec.TableName]; ok {
			tables[idx].Indexes = append(tables[idx].Indexes, Index{
				Name:     rec.Name,
				Columns:  rec.Columns,
				IsUnique: rec.IsUnique,
			})
		}
	}

	fks, err := fetchAs[foreignKeyRecord](ctx, i.q, foreignKeysQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	for _, rec := range fks {
		if idx, ok := byName[rec.TableName]; ok {
			tables[idx].ForeignKeys = append(tables[idx].ForeignKeys, ForeignKey{
				Name:              rec.Name,
				Columns:           rec.Columns,
				ReferencedSchema:  rec.ReferencedSchema,
				ReferencedTable:   rec.ReferencedTable,
				ReferencedColumns: rec.ReferencedColumns,
				OnUpdate:          rec.OnUpdate,
				OnDelete:          rec.OnDelete,
			})
		}
	}

	return tables, nil
}

func (rec columnRecord) column() Column {
	col := Column{
		Name:     rec.Name,
		Type:     mapPostgresType(rec.DataType, rec.UDTName, rec.MaxLength.Int64, rec.Precision.Int64, rec.Scale.Int64),
		Nullable: rec.IsNullable == "YES",
		Position: rec.Position,
	}
	if rec.Default.Valid && rec.Default.String != "" {
		def := rec.Default.String
		col.DefaultValue = &def
	}
	col.AutoIncrement = isAutoIncrement(rec.Default.String)
	return col
}

func (i *Inspector) describeEnums(ctx context.Context, schemaName string) ([]Enum, error) {
	records, err := fetchAs[enumRecord](ctx, i.q, enumsQuery, schemaName)
	if err != nil {
		return nil, err
	}

	enums := make([]Enum, 0, len(records))
	for _, rec := range records {
		enums = append(enums, Enum{Name: rec.Name, Values: rec.Values})
	}
	return enums, nil
}

func (i *Inspector) describeViews(ctx context.Context, schemaName string) ([]View, error) {
	records, err := fetchAs[viewRecord](ctx, i.q, viewsQuery, schemaName)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(records))
	for _, rec := range records {
		views = append(views, View{Name: rec.Name, Definition: strings.TrimSpace(rec.Definition.String)})
	}
	return views, nil
}

// describeSequences reads sequences from pg_sequences when the server has it
func (i *Inspector) describeSequences(ctx context.Context, schemaName string) ([]Sequence, error) {
	query := infoSchemaSequencesQuery
	if v, err := i.ServerVersion(ctx); err != nil {
		i.logger.Debug("server version unavailable, using information_schema.sequences", "error", err)
	} else if v.GreaterThanOrEqual(pgSequencesMinVersion) {
		query = pgSequencesQuery
	}

	records, err := fetchAs[sequenceRecord](ctx, i.q, query, schemaName)
	if err != nil {
		return nil, err
	}

	sequences := make([]Sequence, 0, len(records))
	for _, rec := range records {
		seq := Sequence{Name: rec.Name, DataType: rec.DataType}
		if rec.LastValue.Valid {
			last := rec.LastValue.Int64
			seq.LastValue = &last
		}
		sequences = append(sequences, seq)
	}
	return sequences, nil
}

// mapPostgresType maps PostgreSQL data types to generic types
func mapPostgresType(dataType, udtName string, maxLength, precision, scale int64) string {
	switch dataType {
	case "integer", "int", "int4":
		return "INTEGER"
	case "bigint", "int8":
		return "BIGINT"
	case "smallint", "int2":
		return "SMALLINT"
	case "boolean", "bool":
		return "BOOLEAN"
	case "character varying", "varchar":
		if maxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", maxLength)
		}
		return "VARCHAR"
	case "character", "char":
		if maxLength > 0 {
			return fmt.Sprintf("CHAR(%d)", maxLength)
		}
		return "CHAR"
	case "text":
		return "TEXT"
	case "numeric", "decimal":
		if precision > 0 && scale > 0 {
			return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale)
		}
		return "DECIMAL"
	case "real", "float4":
		return "REAL"
	case "double precision", "float8":
		return "DOUBLE PRECISION"
	case "timestamp without time zone", "timestamp":
		return "TIMESTAMP"
	case "timestamp with time zone", "timestamptz":
		return "TIMESTAMPTZ"
	case "date":
		return "DATE"
	case "time without time zone", "time":
		return "TIME"
	case "json":
		return "JSON"
	case "jsonb":
		return "JSONB"
	case "uuid":
		return "UUID"
	case "bytea":
		return "BYTEA"
	case "ARRAY":
		return strings.TrimPrefix(udtName, "_") + "[]"
	case "USER-DEFINED":
		// This is likely an enum
		return udtName
	default:
		return dataType
	}
}

// isAutoIncrement checks if a column has auto-increment
func isAutoIncrement(defaultValue string) bool {
	if defaultValue == "" {
		return false
	}

	// nextval() means a sequence-backed default
	if strings.Contains(strings.ToLower(defaultValue), "nextval") {
		return true
	}

	// CockroachDB
	return strings.Contains(strings.ToLower(defaultValue), "unique_rowid()")
}
