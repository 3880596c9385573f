package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishbabariya/pgquery/cli/internal/config"
	"github.com/satishbabariya/pgquery/cli/internal/ui"
	"github.com/satishbabariya/pgquery/cli/internal/version"
	"github.com/satishbabariya/pgquery/internal/debug"
	"github.com/satishbabariya/pgquery/introspect"
	"github.com/satishbabariya/pgquery/runtime/client"
)

// app carries state shared by every command of one invocation
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	printer  *ui.Printer
	client   *client.Client
	registry *prometheus.Registry
	metrics  bool
	// confirm asks the user a yes/no question
	confirm func(message string) (bool, error)
}

// Execute is the main entry point for the CLI
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd, a := newRootCommand()
	defer a.closeClient()

	return rootCmd.ExecuteContext(ctx)
}

// NewRootCommand builds the pgquery command tree
func NewRootCommand() *cobra.Command {
	rootCmd, _ := newRootCommand()
	return rootCmd
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{
		v:       viper.New(),
		confirm: surveyConfirm,
	}

	rootCmd := &cobra.Command{
		Use:   "pgquery",
		Short: "Query and inspect PostgreSQL databases",
		Long: `pgquery runs SQL against a PostgreSQL database and reads its catalog.

The connection string comes from --database-url, PGQUERY_DATABASE_URL,
DATABASE_URL (also read from .env and .env.local) or database_url in
.pgquery.yaml.`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("database-url", "", "database connection string")
	flags.String("provider", "", "database provider (postgresql, cockroachdb, mysql, sqlite); detected from the URL when empty")
	flags.StringP("output", "o", ui.FormatTable, "output format (table or json)")
	flags.Bool("verbose", false, "log statements and connection events to stderr")
	flags.BoolVar(&a.metrics, "metrics", false, "print Prometheus query metrics after the command")

	for key, name := range map[string]string{
		config.KeyDatabaseURL: "database-url",
		config.KeyProvider:    "provider",
		config.KeyOutput:      "output",
		config.KeyVerbose:     "verbose",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newSchemasCommand(a),
		newTablesCommand(a),
		newColumnsCommand(a),
		newPreviewCommand(a),
		newQueryCommand(a),
		newExecCommand(a),
		newDescribeCommand(a),
		newVersionCommand(a),
	)

	return rootCmd, a
}

// setup loads configuration and the logger. The database is not touched.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	debug.Setup(debug.Options{
		Enabled: cfg.Verbose,
		Level:   "debug",
		JSON:    cfg.LogFormat == "json",
		Writer:  cmd.ErrOrStderr(),
	})
	if cfg.ConfigFile != "" {
		debug.Debug("loaded config file", "path", cfg.ConfigFile)
	}

	a.printer = ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Output)
	return nil
}

// teardown closes the connection and prints metrics if requested
func (a *app) teardown(cmd *cobra.Command) error {
	closeErr := a.closeClient()

	if a.metrics && a.registry != nil {
		if err := writeMetrics(cmd.ErrOrStderr(), a.registry); err != nil {
			return err
		}
	}
	return closeErr
}

// closeClient closes the client if one was created. It is safe to call
// more than once.
func (a *app) closeClient() error {
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

// db returns the client for this invocation, creating it on first use.
// The connection itself is opened lazily by the first statement.
func (a *app) db() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithMiddleware(client.LoggingMiddleware(debug.With("component", "query"))),
	}
	if a.metrics {
		a.registry = prometheus.NewRegistry()
		opts = append(opts, client.WithMiddleware(client.NewMetrics(a.registry).Middleware()))
	}

	c, err := client.New(a.cfg.Provider, a.cfg.DatabaseURL, opts...)
	if err != nil {
		return nil, err
	}
	debug.Debug("client created", "provider", a.cfg.Provider, "url", config.Redact(a.cfg.DatabaseURL))

	a.client = c
	return c, nil
}

// inspector returns a catalog reader over db()
func (a *app) inspector() (*introspect.Inspector, error) {
	c, err := a.db()
	if err != nil {
		return nil, err
	}
	return introspect.New(c, c.Provider())
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
