package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	datagrid "github.com/ZihxS/golang-datagrid"
)

func newExportCmd(app *App, opts *globalOptions) *cobra.Command {
	var (
		flags  = &stateFlags{}
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every matching row of a table to a file",
		Long: `Export writes all rows matching --search, in --sort order, to a file in
--out named after the table title and today's date. The print and pdf
formats write a print-ready HTML document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.table == "" {
				return userErrorf("--table is required")
			}
			kind, err := datagrid.ParseExportKind(format)
			if err != nil {
				return userErrorf("invalid --format: %w", err)
			}

			s, err := newSession(app, opts)
			if err != nil {
				return err
			}
			tg, err := s.grid(flags.table)
			if err != nil {
				return err
			}
			defer tg.grid.Close()

			if tg.table.ServerSide {
				tg.grid.DisablePagination()
			}
			if err := flags.apply(tg.grid); err != nil {
				return err
			}
			if err := tg.Start(cmd.Context()); err != nil {
				return err
			}

			dest := datagrid.NewFileDestination(outDir)
			if err := tg.grid.Export(kind, dest); err != nil {
				return err
			}
			written := dest.Written()
			if len(written) == 0 {
				return fmt.Errorf("could not write the %s export to %s", kind, outDir)
			}
			for _, path := range written {
				fmt.Fprintln(app.Stdout, path)
			}
			slog.Info("exported table", "table", flags.table, "format", kind.String(), "rows", len(tg.grid.ExportRows()))
			return nil
		},
	}

	flags.register(cmd.Flags(), false)
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format: csv|pdf|print|parquet")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory the export is written to")
	return cmd
}
