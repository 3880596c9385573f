package commands

import (
	"github.com/spf13/cobra"
)

func newSchemasCommand(a *app) *cobra.Command {
	var schema string

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List schemas",
		Long:  "List the non-system schemas of the database and their owners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			insp, err := a.inspector()
			if err != nil {
				return err
			}
			rows, err := insp.GetSchemaDetails(cmd.Context(), schema)
			if err != nil {
				return err
			}
			return a.printer.Rows(rows)
		},
	}

	cmd.Flags().StringVarP(&schema, "schema", "s", "", "only this schema")
	return cmd
}

func newTablesCommand(a *app) *cobra.Command {
	var schema, table string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables and views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			insp, err := a.inspector()
			if err != nil {
				return err
			}
			rows, err := insp.GetTableDetails(cmd.Context(), schema, table)
			if err != nil {
				return err
			}
			return a.printer.Rows(rows)
		},
	}

	cmd.Flags().StringVarP(&schema, "schema", "s", "", "only tables of this schema")
	cmd.Flags().StringVarP(&table, "table", "t", "", "only this table")
	return cmd
}

func newColumnsCommand(a *app) *cobra.Command {
	var schema, table string

	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List columns in ordinal order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			insp, err := a.inspector()
			if err != nil {
				return err
			}
			rows, err := insp.GetAllColumnDetails(cmd.Context(), schema, table)
			if err != nil {
				return err
			}
			return a.printer.Rows(rows)
		},
	}

	cmd.Flags().StringVarP(&schema, "schema", "s", "", "only columns of this schema")
	cmd.Flags().StringVarP(&table, "table", "t", "", "only columns of this table")
	return cmd
}

func newPreviewCommand(a *app) *cobra.Command {
	var schema string
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <table>",
		Short: "Show the first rows of a table",
		Long: `Show the first rows of a table.

Table and schema names are quoted, so they are matched case-sensitively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			insp, err := a.inspector()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.cfg.PreviewLimit
			}
			rows, err := insp.GetTablePreview(cmd.Context(), args[0], schema, limit)
			if err != nil {
				return err
			}
			return a.printer.Rows(rows)
		},
	}

	cmd.Flags().StringVarP(&schema, "schema", "s", "public", "schema of the table")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of rows (default from preview_limit, 10)")
	return cmd
}
