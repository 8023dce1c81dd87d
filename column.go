package datagrid

import "fmt"

// Row is one opaque record of a grid. The engine only reads it by column
// key and never mutates it.
type Row map[string]any

// Column describes how a single field of every row is labelled, sorted,
// searched and rendered.
//
// Fields:
//   - Key: The row key the column reads. Unique within a grid.
//   - Label: The header text, also used as the CSV header.
//   - Sortable: Whether header activation cycles the sort state.
//   - Filterable: Whether the column takes part in free-text search.
//   - Render: An optional function that turns the raw value into what the
//     presentation shell displays. Exports never call it.
type Column struct {
	Key        string
	Label      string
	Sortable   bool
	Filterable bool
	Render     func(value any, row Row) any
}

// Value returns the raw value of the column in the given row, or nil when the
// row has no such key.
func (c Column) Value(row Row) any {
	if row == nil {
		return nil
	}
	return row[c.Key]
}

// Cell returns the value the presentation shell displays for the column: the
// result of Render when one is set, the raw value otherwise.
func (c Column) Cell(row Row) any {
	value := c.Value(row)
	if c.Render != nil {
		return c.Render(value, row)
	}
	return value
}

// title returns the label, falling back to the key.
func (c Column) title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

// initColumnsMap rebuilds the key index of the grid's columns.
//
// This function is called whenever the column slice is replaced.
func (g *Grid) initColumnsMap() {
	g.columnsMap = make(map[string]int, len(g.columns))
	for i, col := range g.columns {
		g.columnsMap[col.Key] = i
	}
}

// column returns the descriptor registered under key.
func (g *Grid) column(key string) (Column, bool) {
	i, ok := g.columnsMap[key]
	if !ok {
		return Column{}, false
	}
	return g.columns[i], true
}

// AddColumn adds a column to the Grid. If a column with the same Key exists,
// it is replaced in place so the column order does not change.
func (g *Grid) AddColumn(col Column) *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addColumnLocked(col)
	return g
}

func (g *Grid) addColumnLocked(col Column) {
	if i, ok := g.columnsMap[col.Key]; ok {
		g.columns[i] = col
		return
	}
	g.columns = append(g.columns, col)
	g.columnsMap[col.Key] = len(g.columns) - 1
}

// AddColumns adds multiple columns to the Grid in order. Existing keys are
// replaced in place.
func (g *Grid) AddColumns(columns ...Column) *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, col := range columns {
		g.addColumnLocked(col)
	}
	return g
}

// EditColumn sets the render function of the column with the given key to
// one that passes only the cell value to editFunc. If the column does not
// exist, the function does nothing.
func (g *Grid) EditColumn(key string, editFunc func(any) any) *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i, ok := g.columnsMap[key]; ok {
		g.columns[i].Render = func(value any, _ Row) any {
			return editFunc(value)
		}
	}
	return g
}

// Columns returns a copy of the grid's column descriptors.
func (g *Grid) Columns() []Column {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Column(nil), g.columns...)
}

// validateColumns checks that there is at least one column and every column
// has a key.
func validateColumns(columns []Column) error {
	if len(columns) == 0 {
		return ErrNoColumns
	}
	for i, col := range columns {
		if col.Key == "" {
			return fmt.Errorf("column %d: %w", i, ErrEmptyColumnKey)
		}
	}
	return nil
}
