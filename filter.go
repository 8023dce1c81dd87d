package datagrid

import (
	"strings"

	"golang.org/x/text/cases"
)

// FilterRows returns the rows where at least one filterable column's display
// string contains query, compared under Unicode case folding. Row order is
// preserved. An empty query returns rows unchanged; a query with no
// filterable columns to match against returns no rows.
func FilterRows(rows []Row, columns []Column, query string) []Row {
	if query == "" {
		return rows
	}

	fold := cases.Fold()
	needle := fold.String(query)

	searchable := make([]Column, 0, len(columns))
	for _, col := range columns {
		if col.Filterable {
			searchable = append(searchable, col)
		}
	}

	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		for _, col := range searchable {
			if strings.Contains(fold.String(DisplayString(col.Value(row))), needle) {
				filtered = append(filtered, row)
				break
			}
		}
	}
	return filtered
}
