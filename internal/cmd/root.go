package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ZihxS/golang-datagrid/internal/config"
	"github.com/ZihxS/golang-datagrid/internal/logging"
)

// globalOptions holds the persistent flags of the root command.
type globalOptions struct {
	configPath string
	debug      bool
	logJSON    bool
}

func newRootCmd(app *App) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "gridctl",
		Short: "Browse, serve and export tabular data",
		Long: `gridctl loads the tables described in a YAML file from HTTP endpoints or a
database and shows them in the terminal, serves them as searchable HTML and
JSON grids, or exports them as CSV, print-ready HTML or parquet.`,
		Version:       app.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logJSON {
				logging.SetupJSON(opts.debug, app.Stderr)
			} else {
				logging.Setup(opts.debug, app.Stderr)
			}
			slog.Debug("starting", "command", cmd.Name(), "config", opts.configPath)
			return nil
		},
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &userError{err: err}
	})
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to the grid configuration file")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(
		newViewCmd(app, opts),
		newExportCmd(app, opts),
		newServeCmd(app, opts),
		newTablesCmd(app, opts),
	)
	return rootCmd
}
