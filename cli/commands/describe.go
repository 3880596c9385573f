package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/pgquery/cli/internal/ui"
	"github.com/satishbabariya/pgquery/introspect"
)

func newDescribeCommand(a *app) *cobra.Command {
	var schema string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Describe the tables, enums, views and sequences of a schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			insp, err := a.inspector()
			if err != nil {
				return err
			}

			sp := a.printer.Spinner(fmt.Sprintf("Introspecting schema %s...", schema))
			desc, err := insp.Describe(cmd.Context(), schema)
			sp.Stop()
			if err != nil {
				return err
			}

			if a.printer.Format() == ui.FormatJSON {
				return a.printer.JSON(desc)
			}
			return a.printer.Markdown(schemaMarkdown(desc))
		},
	}

	cmd.Flags().StringVarP(&schema, "schema", "s", introspect.DefaultSchema, "schema to describe")
	return cmd
}

// schemaMarkdown renders an introspected schema as a markdown document
func schemaMarkdown(schema *introspect.DatabaseSchema) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Schema `%s`\n\n", schema.Schema)
	if len(schema.Tables) == 0 {
		b.WriteString("_No tables._\n\n")
	}

	for _, table := range schema.Tables {
		fmt.Fprintf(&b, "## %s\n\n", table.Name)
		b.WriteString("| # | Column | Type | Nullable | Default |\n")
		b.WriteString("|---|--------|------|----------|---------|\n")
		for _, col := range table.Columns {
			def := ""
			if col.DefaultValue != nil {
				def = "`" + escapeCell(*col.DefaultValue) + "`"
			}
			nullable := "no"
			if col.Nullable {
				nullable = "yes"
			}
			name := escapeCell(col.Name)
			if col.AutoIncrement {
				name += " (auto)"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n", col.Position, name, escapeCell(col.Type), nullable, def)
		}
		b.WriteString("\n")

		if table.PrimaryKey != nil {
			fmt.Fprintf(&b, "- **Primary key** `%s` (%s)\n", table.PrimaryKey.Name, strings.Join(table.PrimaryKey.Columns, ", "))
		}
		for _, idx := range table.Indexes {
			kind := "Index"
			if idx.IsUnique {
				kind = "Unique index"
			}
			fmt.Fprintf(&b, "- **%s** `%s` (%s)\n", kind, idx.Name, strings.Join(idx.Columns, ", "))
		}
		for _, fk := range table.ForeignKeys {
			fmt.Fprintf(&b, "- **Foreign key** `%s` (%s) references %s.%s (%s), on delete %s, on update %s\n",
				fk.Name,
				strings.Join(fk.Columns, ", "),
				fk.ReferencedSchema,
				fk.ReferencedTable,
				strings.Join(fk.ReferencedColumns, ", "),
				strings.ToLower(fk.OnDelete),
				strings.ToLower(fk.OnUpdate),
			)
		}
		b.WriteString("\n")
	}

	if len(schema.Enums) > 0 {
		b.WriteString("## Enums\n\n")
		for _, e := range schema.Enums {
			fmt.Fprintf(&b, "- `%s`: %s\n", e.Name, strings.Join(e.Values, ", "))
		}
		b.WriteString("\n")
	}

	if len(schema.Views) > 0 {
		b.WriteString("## Views\n\n")
		for _, v := range schema.Views {
			fmt.Fprintf(&b, "### %s\n\n```sql\n%s\n```\n\n", v.Name, v.Definition)
		}
	}

	if len(schema.Sequences) > 0 {
		b.WriteString("## Sequences\n\n")
		for _, seq := range schema.Sequences {
			last := "unused"
			if seq.LastValue != nil {
				last = fmt.Sprintf("last value %d", *seq.LastValue)
			}
			fmt.Fprintf(&b, "- `%s` %s, %s\n", seq.Name, seq.DataType, last)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
