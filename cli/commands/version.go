package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/pgquery/cli/internal/ui"
	"github.com/satishbabariya/pgquery/cli/internal/version"
)

func newVersionCommand(a *app) *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display version information for the pgquery CLI and, with --server, the database server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()

			if server {
				insp, err := a.inspector()
				if err != nil {
					return err
				}
				v, err := insp.ServerVersion(cmd.Context())
				if err != nil {
					return err
				}
				info.Server = v.Original()
			}

			if a.printer.Format() == ui.FormatJSON {
				return a.printer.JSON(info)
			}
			_, err := cmd.OutOrStdout().Write([]byte(info.FullString() + "\n"))
			return err
		},
	}

	cmd.Flags().BoolVar(&server, "server", false, "also query the server version")
	return cmd
}
