package cmd

import (
	"strings"

	"github.com/spf13/pflag"

	datagrid "github.com/ZihxS/golang-datagrid"
)

// stateFlags are the grid state flags shared by view and export.
type stateFlags struct {
	table  string
	search string
	sort   string
	page   int
	length int
}

func (f *stateFlags) register(fs *pflag.FlagSet, paging bool) {
	fs.StringVarP(&f.table, "table", "t", "", "Name of the configured table")
	fs.StringVarP(&f.search, "search", "s", "", "Free-text search over the filterable columns")
	fs.StringVar(&f.sort, "sort", "", "Sort column as key or key:desc")
	if paging {
		fs.IntVarP(&f.page, "page", "p", 1, "Page to show")
		fs.IntVarP(&f.length, "length", "l", 0, "Rows per page, -1 for all (default: the table's page size)")
	}
}

// parseSortFlag parses "key", "key:asc" or "key:desc".
func parseSortFlag(s string) (datagrid.SortState, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return datagrid.SortState{}, nil
	}

	key, dir, found := strings.Cut(s, ":")
	if key == "" {
		return datagrid.SortState{}, userErrorf("invalid --sort %q: missing column", s)
	}
	state := datagrid.SortState{Key: key, Direction: datagrid.SortAscending}
	if found {
		d, err := datagrid.ParseSortDirection(dir)
		if err != nil {
			return datagrid.SortState{}, userErrorf("invalid --sort %q: %w", s, err)
		}
		state.Direction = d
	}
	return state, nil
}

// apply sets the flagged state on g. Search, page size and sort come before
// the page, since they reset it.
func (f *stateFlags) apply(g *datagrid.Grid) error {
	if f.search != "" {
		g.SetSearch(f.search)
	}
	if f.length != 0 {
		if err := g.SetPageSize(f.length); err != nil {
			return userErrorf("invalid --length: %w", err)
		}
	}
	state, err := parseSortFlag(f.sort)
	if err != nil {
		return err
	}
	if state.IsSorted() {
		if err := g.SetSort(state); err != nil {
			return userErrorf("invalid --sort: %w", err)
		}
	}
	if f.page > 1 {
		g.SetPage(f.page)
	}
	return nil
}
