// Package introspect reads schema metadata from PostgreSQL-compatible
// databases through a pgquery client.
package introspect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/satishbabariya/pgquery/internal/debug"
	"github.com/satishbabariya/pgquery/runtime/types"
)

// Querier runs SQL and returns rows. *client.Client satisfies it.
type Querier interface {
	FetchAll(ctx context.Context, query string, args ...any) ([]types.Row, error)
	FetchOne(ctx context.Context, query string, args ...any) (*types.Row, error)
}

// Inspector runs catalog queries against one database
type Inspector struct {
	q        Querier
	provider string
	logger   *slog.Logger
}

// New creates an inspector for the given provider.
// Only PostgreSQL-compatible providers are supported.
func New(q Querier, provider string) (*Inspector, error) {
	switch provider {
	case "postgresql", "postgres", "cockroachdb", "cockroach":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	return &Inspector{
		q:        q,
		provider: provider,
		logger:   debug.With("component", "introspect"),
	}, nil
}

// DatabaseSchema represents the introspected contents of one schema
type DatabaseSchema struct {
	Schema    string     `json:"schema"`
	Tables    []Table    `json:"tables"`
	Enums     []Enum     `json:"enums"`
	Views     []View     `json:"views"`
	Sequences []Sequence `json:"sequences"`
}

// Table represents a database table
type Table struct {
	Name        string       `json:"name"`
	Schema      string       `json:"schema"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  *PrimaryKey  `json:"primary_key,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// Column represents a table column
type Column struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Nullable      bool    `json:"nullable"`
	DefaultValue  *string `json:"default_value,omitempty"`
	AutoIncrement bool    `json:"auto_increment"`
	Position      int     `json:"position"`
}

// PrimaryKey represents a primary key constraint
type PrimaryKey struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Index represents a database index
type Index struct {
	Name     string   `json:"name"`
	Columns  []string `json:"columns"`
	IsUnique bool     `json:"is_unique"`
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedSchema  string   `json:"referenced_schema"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
	OnDelete          string   `json:"on_delete"`
	OnUpdate          string   `json:"on_update"`
}

// Enum represents a database enum type
type Enum struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// View represents a database view
type View struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// Sequence represents a database sequence
type Sequence struct {
	Name      string `json:"name"`
	DataType  string `json:"data_type"`
	LastValue *int64 `json:"last_value,omitempty"`
}
