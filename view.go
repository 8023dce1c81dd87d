package datagrid

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
)

// Status is the presentation state of a grid.
type Status int

const (
	// StatusLoading is shown while a fetch is in flight.
	StatusLoading Status = iota
	// StatusReady is shown once rows are available, possibly none.
	StatusReady
	// StatusErrored is shown after a failed fetch until the next one.
	StatusErrored
)

// String returns the name of the status.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// View is an immutable snapshot of everything a grid displays, derived from
// the raw rows, search term, sort state, pagination state and configuration
// by the pure pipeline stages.
type View struct {
	Title   string
	Mode    Mode
	Status  Status
	Error   string
	Columns []Column
	Config  Config
	Search  string
	Sort    SortState

	// Page holds the rows of the current page and the record bookkeeping.
	Page PageResult
	// Cells holds the rendered cells of Page.Rows, one slice per row in
	// column order.
	Cells [][]any

	// FilteredRecords is the number of rows matching the search.
	FilteredRecords int
	// TotalRecords is the number of rows before the search.
	TotalRecords int
	// ServerCount is the total declared by the remote response, if any. It
	// is informational and does not affect pagination.
	ServerCount *int

	// Summary is the record count line, empty when it is hidden.
	Summary string
}

// Empty reports whether a ready view has no rows to show.
func (v View) Empty() bool {
	return v.Status == StatusReady && len(v.Page.Rows) == 0
}

// View computes the current snapshot of the grid.
func (g *Grid) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := View{
		Title:   g.title,
		Mode:    g.mode,
		Columns: slices.Clone(g.columns),
		Config:  g.config,
		Search:  g.search,
		Sort:    g.sort,
	}
	switch {
	case g.load.Loading:
		v.Status = StatusLoading
	case g.load.Err != "":
		v.Status = StatusErrored
		v.Error = g.load.Err
	default:
		v.Status = StatusReady
	}

	pageSize := g.effectivePageSize()
	if g.mode == ModeControlled {
		total := g.total
		if total < 0 {
			total = len(g.rows)
		}
		v.Page = pageWindow(g.rows, g.page, pageSize, total)
		v.FilteredRecords = v.Page.TotalRecords
		v.TotalRecords = v.Page.TotalRecords
		if g.unfiltered >= 0 {
			v.TotalRecords = g.unfiltered
		}
	} else {
		processed := g.processed()
		v.Page = Paginate(processed, g.page, pageSize)
		v.FilteredRecords = len(processed)
		v.TotalRecords = len(g.rows)
		v.ServerCount = g.count
	}

	v.Cells = make([][]any, len(v.Page.Rows))
	for i, row := range v.Page.Rows {
		cells := make([]any, len(v.Columns))
		for j, col := range v.Columns {
			cells[j] = col.Cell(row)
		}
		v.Cells[i] = cells
	}

	if g.config.Summary && v.Status == StatusReady {
		v.Summary = Summarize(v.Page, v.TotalRecords)
	}
	return v
}

// Summarize returns the record count line for a page, for example
// "Showing 1 to 10 of 15 records". When the page was drawn from a filtered
// set smaller or larger than total, the unfiltered total is appended. It
// returns the empty string when there are no records.
func Summarize(page PageResult, total int) string {
	if page.TotalRecords == 0 {
		return ""
	}
	s := fmt.Sprintf("Showing %d to %d of %d records", page.StartRecord, page.EndRecord, page.TotalRecords)
	if page.TotalRecords != total {
		s += fmt.Sprintf(" (filtered from %d total records)", total)
	}
	return s
}

// Export serializes every filtered and sorted row, not only the current
// page, and hands the result to dest.
//
// A disabled kind returns ErrExportDisabled. A destination that reports
// ErrDestinationUnavailable is treated as a no-op and nil is returned.
func (g *Grid) Export(kind ExportKind, dest Destination) error {
	g.mu.Lock()
	if !g.config.Export.Enabled(kind) {
		g.mu.Unlock()
		return fmt.Errorf("%s: %w", kind, ErrExportDisabled)
	}
	title := g.title
	columns := slices.Clone(g.columns)
	rows := slices.Clone(g.processed())
	now := g.now()
	logger := g.logger
	g.mu.Unlock()

	var (
		buf bytes.Buffer
		err error
	)
	switch kind {
	case ExportCSV:
		if err = WriteCSV(&buf, columns, rows); err == nil {
			err = dest.Download(CSVFileName(title, now), contentTypeCSV, buf.Bytes())
		}
	case ExportPDF, ExportPrint:
		if err = WritePrintHTML(&buf, title, columns, rows); err == nil {
			err = dest.OpenPrint(PrintFileName(title, now), buf.Bytes())
		}
	case ExportParquet:
		if err = WriteParquet(&buf, columns, rows); err == nil {
			err = dest.Download(ParquetFileName(title, now), contentTypeParquet, buf.Bytes())
		}
	default:
		return fmt.Errorf("%d: %w", kind, ErrUnknownExport)
	}

	if errors.Is(err, ErrDestinationUnavailable) {
		logger.Debug("export destination unavailable", "component", "datagrid", "kind", kind.String(), "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}
	logger.Debug("exported rows", "component", "datagrid", "kind", kind.String(), "rows", len(rows))
	return nil
}
