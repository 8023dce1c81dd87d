package datagrid

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// Query carries the search, sort and page state of a grid. Controlled grids
// report it to their owner on every change.
type Query struct {
	Search   string
	Sort     SortState
	Page     int
	PageSize int
}

// LoadState is the fetch state of a grid. Loading and Err never hold at the
// same time.
type LoadState struct {
	Loading bool
	Err     string
}

// Grid is a tabular data engine: it owns a set of column descriptors, a row
// source, and the search, sort and pagination state applied to the rows.
//
// A Grid either fetches its rows through a Loader (ModeRemote) or displays
// rows pushed by its owner (ModeControlled). All methods are safe for
// concurrent use.
//
// In remote mode the whole result is held in memory and searched, sorted and
// paged locally, which does not scale to very large tables. Those belong in
// controlled mode driven by a ServerQuery.
type Grid struct {
	mu sync.Mutex

	title      string
	columns    []Column
	columnsMap map[string]int
	config     Config
	mode       Mode
	logger     *slog.Logger
	now        func() time.Time

	endpoint string
	loader   Loader
	mounted  bool
	gen      uint64
	cancel   context.CancelFunc

	rows       []Row
	count      *int
	total      int
	unfiltered int
	load       LoadState

	search   string
	sort     SortState
	page     int
	pageSize int
	onQuery  func(Query)
}

// New returns a remote-mode Grid titled title with the given columns and the
// default configuration. Until a fetch settles the grid reports loading.
func New(title string, columns ...Column) *Grid {
	g := &Grid{
		title:      title,
		config:     DefaultConfig(),
		mode:       ModeRemote,
		logger:     slog.Default(),
		now:        time.Now,
		total:      TotalUnknown,
		unfiltered: TotalUnknown,
		load:       LoadState{Loading: true},
		page:       1,
	}
	g.pageSize = g.config.PageSize
	g.initColumnsMap()
	for _, col := range columns {
		g.addColumnLocked(col)
	}
	return g
}

// Title returns the grid title.
func (g *Grid) Title() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.title
}

// Mode returns the active row source mode.
func (g *Grid) Mode() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

// Config returns the resolved configuration.
func (g *Grid) Config() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.config
}

// Endpoint sets the endpoint identifier fetched in remote mode. Use
// SetEndpoint to change it after the grid is mounted.
func (g *Grid) Endpoint(endpoint string) *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.endpoint = endpoint
	return g
}

// UseLoader sets the Loader used in remote mode.
func (g *Grid) UseLoader(loader Loader) *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loader = loader
	return g
}

// Controlled switches the grid to controlled mode. The grid stops fetching
// and displays whatever SetRows supplies, without local search, sort or
// pagination.
func (g *Grid) Controlled() *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mode = ModeControlled
	g.load = LoadState{}
	if g.rows == nil {
		g.rows = []Row{}
	}
	return g
}

// Rows switches the grid to controlled mode and supplies its rows.
func (g *Grid) Rows(rows []Row) *Grid {
	g.Controlled()
	_ = g.SetRows(rows, false, TotalUnknown)
	return g
}

// OnQuery registers the function told about search, sort and page changes
// in controlled mode. It is called without the grid lock held, so it may
// call SetRows directly.
func (g *Grid) OnQuery(fn func(Query)) *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onQuery = fn
	return g
}

// WithLogger sets the logger used for fetch and export diagnostics.
func (g *Grid) WithLogger(logger *slog.Logger) *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Logger returns the logger of the grid.
func (g *Grid) Logger() *slog.Logger {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.logger
}

// SetOptions resolves opts over the defaults and applies the result. The
// page size is reset to the configured one and the page to 1.
func (g *Grid) SetOptions(opts *Options) *Grid {
	return g.SetConfig(ResolveConfig(opts))
}

// SetConfig replaces the resolved configuration. The page size is reset to
// the configured one and the page to 1.
func (g *Grid) SetConfig(config Config) *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config = config
	g.pageSize = config.PageSize
	g.page = 1
	return g
}

// DisableSearch turns the search stage off.
func (g *Grid) DisableSearch() *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config.Search = false
	return g
}

// DisablePagination shows every row on a single page.
func (g *Grid) DisablePagination() *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config.Pagination = false
	g.page = 1
	return g
}

// DisableSummary hides the record count line.
func (g *Grid) DisableSummary() *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config.Summary = false
	return g
}

// DisableExport turns off the given export kinds.
func (g *Grid) DisableExport(kinds ...ExportKind) *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, kind := range kinds {
		switch kind {
		case ExportCSV:
			g.config.Export.CSV = false
		case ExportPDF:
			g.config.Export.PDF = false
		case ExportPrint:
			g.config.Export.Print = false
		case ExportParquet:
			g.config.Export.Parquet = false
		}
	}
	return g
}

// Validate checks the columns, the configuration and, in remote mode, that
// a loader is set.
func (g *Grid) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := validateColumns(g.columns); err != nil {
		return err
	}
	if err := g.config.Validate(); err != nil {
		return err
	}
	if g.mode == ModeRemote && g.loader == nil {
		return ErrNoLoader
	}
	return nil
}

// closedChan returns an already closed channel.
func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Mount starts the initial fetch of a remote grid. The returned channel is
// closed once that fetch has settled. Controlled grids return a closed
// channel.
func (g *Grid) Mount(ctx context.Context) <-chan struct{} {
	g.mu.Lock()
	g.mounted = true
	g.mu.Unlock()
	return g.Refresh(ctx)
}

// SetEndpoint changes the endpoint of a remote grid and fetches it. Setting
// the endpoint already shown by a mounted grid does nothing. The page is
// reset to 1.
func (g *Grid) SetEndpoint(ctx context.Context, endpoint string) <-chan struct{} {
	g.mu.Lock()
	if g.mode != ModeRemote || (g.mounted && endpoint == g.endpoint) {
		g.mu.Unlock()
		return closedChan()
	}
	g.endpoint = endpoint
	g.page = 1
	g.mounted = true
	g.mu.Unlock()
	return g.Refresh(ctx)
}

// Refresh fetches the current endpoint again. A fetch already in flight is
// canceled and its result discarded, so only the most recently started fetch
// updates the grid. The returned channel is closed when this fetch settles.
func (g *Grid) Refresh(ctx context.Context) <-chan struct{} {
	g.mu.Lock()
	if g.mode != ModeRemote {
		g.mu.Unlock()
		return closedChan()
	}

	if g.cancel != nil {
		g.cancel()
	}
	g.gen++
	gen := g.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.load = LoadState{Loading: true}
	endpoint, loader, logger := g.endpoint, g.loader, g.logger
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		logger.Debug("fetching rows", "component", "datagrid", "endpoint", endpoint)
		var (
			p   Payload
			err error
		)
		if loader == nil {
			err = ErrNoLoader
		} else {
			p, err = loader.Load(fetchCtx, endpoint)
		}
		g.settle(gen, endpoint, p, err)
	}()
	return done
}

// settle applies the result of fetch gen unless a newer fetch was started or
// the grid was closed in the meantime.
func (g *Grid) settle(gen uint64, endpoint string, p Payload, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.gen {
		g.logger.Debug("discarding stale fetch", "component", "datagrid", "endpoint", endpoint)
		return
	}
	g.cancel = nil

	if err != nil {
		g.logger.Warn("fetch failed", "component", "datagrid", "endpoint", endpoint, "error", err)
		g.rows = []Row{}
		g.count = nil
		g.load = LoadState{Err: err.Error()}
		return
	}

	g.rows = p.Rows
	if g.rows == nil {
		g.rows = []Row{}
	}
	g.count = p.Count
	g.load = LoadState{}
	g.logger.Debug("fetched rows", "component", "datagrid", "endpoint", endpoint, "rows", len(g.rows))
}

// Close unmounts the grid: any fetch in flight is canceled and its result
// will not be applied.
func (g *Grid) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.gen++
	g.mounted = false
}

// SetRows supplies the rows, loading flag and total row count of a
// controlled grid. Pass TotalUnknown when the total is the number of rows.
// The slice is copied; the rows themselves are shared and never modified.
func (g *Grid) SetRows(rows []Row, loading bool, total int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mode != ModeControlled {
		return ErrNotControlled
	}
	g.rows = slices.Clone(rows)
	if g.rows == nil {
		g.rows = []Row{}
	}
	g.total = total
	g.unfiltered = TotalUnknown
	g.load = LoadState{Loading: loading}
	return nil
}

// SetResult supplies one page of a server-side result to a controlled grid:
// the page rows, the number of rows matching the search and the number of
// rows before the search.
func (g *Grid) SetResult(rows []Row, filtered, total int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mode != ModeControlled {
		return ErrNotControlled
	}
	g.rows = slices.Clone(rows)
	if g.rows == nil {
		g.rows = []Row{}
	}
	g.total = filtered
	g.unfiltered = total
	g.load = LoadState{}
	return nil
}

// SetError puts a controlled grid into the errored state with err's message.
// A nil err clears the errored state and keeps the rows.
func (g *Grid) SetError(err error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mode != ModeControlled {
		return ErrNotControlled
	}
	if err == nil {
		g.load = LoadState{}
		return nil
	}
	g.rows = []Row{}
	g.load = LoadState{Err: err.Error()}
	return nil
}

// Fork returns an unmounted copy of the grid holding the same rows,
// configuration and search, sort and page state. Changes to the copy never
// reach g, and the copy reports no query changes, so a single request can
// own it.
func (g *Grid) Fork() *Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &Grid{
		title:      g.title,
		columns:    slices.Clone(g.columns),
		columnsMap: maps.Clone(g.columnsMap),
		config:     g.config,
		mode:       g.mode,
		logger:     g.logger,
		now:        g.now,
		endpoint:   g.endpoint,
		loader:     g.loader,
		rows:       g.rows,
		count:      g.count,
		total:      g.total,
		unfiltered: g.unfiltered,
		load:       g.load,
		search:     g.search,
		sort:       g.sort,
		page:       g.page,
		pageSize:   g.pageSize,
	}
}

// LoadState returns the current fetch state.
func (g *Grid) LoadState() LoadState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.load
}

// Query returns the current search, sort and page state.
func (g *Grid) Query() Query {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queryLocked()
}

func (g *Grid) queryLocked() Query {
	return Query{Search: g.search, Sort: g.sort, Page: g.page, PageSize: g.effectivePageSize()}
}

// effectivePageSize is the page size after the pagination toggle.
func (g *Grid) effectivePageSize() int {
	if !g.config.Pagination {
		return PageSizeAll
	}
	return g.pageSize
}

// notify reports q to the controlled-mode owner. It must be called without
// the lock held.
func (g *Grid) notify(fn func(Query), q Query) {
	if fn != nil {
		fn(q)
	}
}

// changed finishes a state change: it releases the lock and, in controlled
// mode, reports the new query.
func (g *Grid) changed() {
	fn := g.onQuery
	q := g.queryLocked()
	controlled := g.mode == ModeControlled
	g.mu.Unlock()
	if controlled {
		g.notify(fn, q)
	}
}

// SetSearch sets the search term and resets the page to 1.
func (g *Grid) SetSearch(term string) {
	g.mu.Lock()
	g.search = term
	g.page = 1
	g.changed()
}

// ToggleSort activates the header of the column with the given key.
// Non-sortable columns leave the state unchanged. The page is kept.
func (g *Grid) ToggleSort(key string) error {
	g.mu.Lock()
	col, ok := g.column(key)
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%q: %w", key, ErrUnknownColumn)
	}
	next := ToggleSort(g.sort, col)
	if next == g.sort {
		g.mu.Unlock()
		return nil
	}
	g.sort = next
	g.changed()
	return nil
}

// SetSort replaces the sort state. The key must name a sortable column
// unless the state is unsorted. The page is kept.
func (g *Grid) SetSort(state SortState) error {
	g.mu.Lock()
	if !state.IsSorted() {
		state = SortState{}
	} else if col, ok := g.column(state.Key); !ok || !col.Sortable {
		g.mu.Unlock()
		return fmt.Errorf("%q: %w", state.Key, ErrUnknownColumn)
	}
	g.sort = state
	g.changed()
	return nil
}

// SetPageSize sets the page size and resets the page to 1.
func (g *Grid) SetPageSize(size int) error {
	if !validPageSize(size) {
		return fmt.Errorf("%d: %w", size, ErrInvalidPageSize)
	}
	g.mu.Lock()
	g.pageSize = size
	g.page = 1
	g.changed()
	return nil
}

// SetPage moves to the given 1-based page. Pages past the end are clamped
// when the view is computed.
func (g *Grid) SetPage(page int) {
	g.mu.Lock()
	g.page = max(page, 1)
	g.changed()
}

// NextPage moves one page forward if there is one.
func (g *Grid) NextPage() {
	v := g.View()
	if v.Page.HasNext() {
		g.SetPage(v.Page.CurrentPage + 1)
	}
}

// PrevPage moves one page back if there is one.
func (g *Grid) PrevPage() {
	v := g.View()
	if v.Page.HasPrev() {
		g.SetPage(v.Page.CurrentPage - 1)
	}
}

// processed returns the filtered and sorted rows of a remote grid, or the
// supplied rows of a controlled one. It is the row set exports see.
func (g *Grid) processed() []Row {
	if g.mode == ModeControlled {
		return g.rows
	}
	rows := g.rows
	if g.config.Search {
		rows = FilterRows(rows, g.columns, g.search)
	}
	return SortRows(rows, g.sort)
}

// ExportRows returns every row an export would contain: the filtered and
// sorted rows before pagination.
func (g *Grid) ExportRows() []Row {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.processed())
}
