package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/pgquery/cli/internal/ui"
	"github.com/satishbabariya/pgquery/cli/internal/watch"
	"github.com/satishbabariya/pgquery/internal/debug"
)

func newQueryCommand(a *app) *cobra.Command {
	var (
		one     bool
		watchIt bool
		yes     bool
		params  []string
	)

	cmd := &cobra.Command{
		Use:   "query <sql|file.sql>",
		Short: "Run SQL and print the rows it returns",
		Long: `Run SQL and print the rows it returns.

Statements run outside a transaction. Use exec for statements that should
commit or roll back as a unit. SQL that modifies data asks for confirmation
unless --yes is given.`,
		Example: `  pgquery query "SELECT * FROM users WHERE id = $1" --arg 42
  pgquery query report.sql --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, path, err := readSQL(args[0])
			if err != nil {
				return err
			}
			if watchIt && path == "" {
				return errors.New("--watch needs a .sql file argument")
			}

			c, err := a.db()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			run := func(sql string) error {
				if err := a.confirmWrite(sql, yes); err != nil {
					return err
				}
				if one {
					row, err := c.FetchOne(ctx, sql, toArgs(params)...)
					if err != nil {
						return err
					}
					return a.printer.Row(row)
				}
				rows, err := c.FetchAll(ctx, sql, toArgs(params)...)
				if err != nil {
					return err
				}
				return a.printer.Rows(rows)
			}

			if !watchIt {
				if err := run(sql); err != nil {
					if errors.Is(err, errAborted) {
						a.printer.Warning("Aborted")
						return nil
					}
					return err
				}
				return nil
			}

			w, err := watch.NewWatcher(path, func() error {
				sql, _, err := readSQL(path)
				if err != nil {
					return err
				}
				if err := run(sql); err != nil {
					// keep watching; the next save may fix it
					a.printer.Error("%v", err)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			a.printer.Info("Watching %s, press Ctrl+C to stop", path)
			debug.Debug("watching query file", "path", path)

			<-ctx.Done()
			return w.Stop()
		},
	}

	cmd.Flags().BoolVar(&one, "one", false, "print only the first row")
	cmd.Flags().BoolVarP(&watchIt, "watch", "w", false, "re-run the file whenever it changes")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask before running SQL that modifies data")
	cmd.Flags().StringArrayVarP(&params, "arg", "a", nil, "statement parameter, repeat for $1, $2, ...")
	return cmd
}

func newExecCommand(a *app) *cobra.Command {
	var (
		yes    bool
		params []string
	)

	cmd := &cobra.Command{
		Use:   "exec <sql|file.sql>",
		Short: "Run SQL in a transaction",
		Long: `Run SQL in a transaction that is committed when it succeeds and rolled
back when it fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, _, err := readSQL(args[0])
			if err != nil {
				return err
			}
			if err := a.confirmWrite(sql, yes); err != nil {
				if errors.Is(err, errAborted) {
					a.printer.Warning("Aborted")
					return nil
				}
				return err
			}

			c, err := a.db()
			if err != nil {
				return err
			}

			res, err := c.RunTransaction(cmd.Context(), sql, toArgs(params)...)
			if err != nil {
				a.printer.Error("Transaction rolled back")
				return err
			}

			if n, err := res.RowsAffected(); err == nil {
				if a.printer.Format() == ui.FormatJSON {
					return a.printer.JSON(map[string]int64{"rows_affected": n})
				}
				a.printer.Success("Committed, %s", pluralRows(n))
				return nil
			}
			a.printer.Success("Committed")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().StringArrayVarP(&params, "arg", "a", nil, "statement parameter, repeat for $1, $2, ...")
	return cmd
}

func pluralRows(n int64) string {
	if n == 1 {
		return "1 row affected"
	}
	return fmt.Sprintf("%d rows affected", n)
}
