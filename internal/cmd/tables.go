package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZihxS/golang-datagrid/internal/config"
)

func newTablesCmd(app *App, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the configured tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if len(cfg.Tables) == 0 {
				_, _ = fmt.Fprintln(app.Stdout, "No tables configured")
				return nil
			}

			w := tabwriter.NewWriter(app.Stdout, 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tTITLE\tSOURCE\tCOLUMNS")
			for _, t := range cfg.Tables {
				keys := make([]string, len(t.Columns))
				for i, c := range t.Columns {
					keys[i] = c.Key
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.GridTitle(), tableSource(t), strings.Join(keys, ","))
			}
			return w.Flush()
		},
	}
}

// tableSource describes where a table's rows come from.
func tableSource(t config.TableConfig) string {
	switch {
	case t.ServerSide:
		return "db:" + t.Table + " (server)"
	case t.Table != "":
		return "db:" + t.Table
	default:
		return t.Endpoint
	}
}
