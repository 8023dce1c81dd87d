package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ZihxS/golang-datagrid/internal/termtable"
)

func newViewCmd(app *App, opts *globalOptions) *cobra.Command {
	flags := &stateFlags{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show one page of a table in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.table == "" {
				return userErrorf("--table is required")
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

			if err := flags.apply(tg.grid); err != nil {
				return err
			}
			if err := tg.Start(cmd.Context()); err != nil {
				return err
			}
			return termtable.Render(app.Stdout, tg.grid.View(), termtable.Detect(app.Stdout))
		},
	}

	flags.register(cmd.Flags(), true)
	return cmd
}
