package datagrid

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ServerQuery runs a grid Query against a database through gorm, so the
// database does the searching, sorting and paging. It backs controlled grids
// whose row sets are too large to fetch whole.
type ServerQuery struct {
	tx              *gorm.DB
	model           any
	columns         []Column
	filters         []func(*gorm.DB) *gorm.DB
	caseInsensitive bool
}

// ServerResult is the outcome of one ServerQuery run.
//
// Fields:
//   - Rows: The rows of the requested page.
//   - Total: The number of rows before the search.
//   - Filtered: The number of rows matching the search.
type ServerResult struct {
	Rows     []Row
	Total    int64
	Filtered int64
}

// NewServerQuery returns a ServerQuery over tx. Searchable and orderable
// fields are taken from the columns' Filterable and Sortable flags.
func NewServerQuery(tx *gorm.DB, columns ...Column) *ServerQuery {
	return &ServerQuery{tx: tx, columns: columns}
}

// Model sets the model to be queried.
//
// This can either be a struct or a string representing the table name. If a
// model is not set, the statement of tx must already name a table.
func (s *ServerQuery) Model(model any) *ServerQuery {
	s.model = model
	return s
}

// Filter adds a scope applied to every query, before the search.
func (s *ServerQuery) Filter(filterFunc func(*gorm.DB) *gorm.DB) *ServerQuery {
	s.filters = append(s.filters, filterFunc)
	return s
}

// CaseInsensitive lower-cases the search term and compares it with LOWER()
// of each column, for collations that are case sensitive.
func (s *ServerQuery) CaseInsensitive() *ServerQuery {
	s.caseInsensitive = true
	return s
}

// Validate checks that there is a database and something to query.
func (s *ServerQuery) Validate() error {
	if s.tx == nil {
		return errors.New("no tx provided")
	}
	if err := validateColumns(s.columns); err != nil {
		return err
	}
	if s.model == nil && (s.tx.Statement == nil || (s.tx.Statement.Model == nil && s.tx.Statement.Table == "" &&
		(s.tx.Statement.TableExpr == nil || s.tx.Statement.TableExpr.SQL == ""))) {
		return errors.New("model is required")
	}
	return nil
}

// buildBaseQuery returns the query every count and data query starts from:
// the model or table with the filters applied.
func (s *ServerQuery) buildBaseQuery(ctx context.Context) *gorm.DB {
	query := s.tx.WithContext(ctx)
	switch m := s.model.(type) {
	case nil:
	case string:
		query = query.Table(m)
	default:
		query = query.Model(m)
	}
	for _, filter := range s.filters {
		query = filter(query)
	}
	return query.Session(&gorm.Session{})
}

// applySearch adds an OR-ed LIKE condition over the filterable columns. If
// the term is empty or no column is filterable, the query is returned
// unmodified.
func (s *ServerQuery) applySearch(query *gorm.DB, term string) *gorm.DB {
	if term == "" {
		return query
	}

	value := "%" + term + "%"
	if s.caseInsensitive {
		value = strings.ToLower(value)
	}

	var conditions []clause.Expression
	for _, col := range s.columns {
		if !col.Filterable {
			continue
		}
		if s.caseInsensitive {
			conditions = append(conditions, clause.Expr{
				SQL:  "LOWER(?) LIKE ?",
				Vars: []any{clause.Column{Name: col.Key}, value},
			})
			continue
		}
		conditions = append(conditions, clause.Like{
			Column: clause.Column{Name: col.Key},
			Value:  value,
		})
	}

	if len(conditions) > 0 {
		query = query.Where(clause.Or(conditions...))
	}
	return query
}

// applyOrder orders by the sort key when it names a sortable column.
func (s *ServerQuery) applyOrder(query *gorm.DB, state SortState) *gorm.DB {
	if !state.IsSorted() {
		return query
	}
	for _, col := range s.columns {
		if col.Key == state.Key && col.Sortable {
			return query.Order(clause.OrderByColumn{
				Column: clause.Column{Name: col.Key},
				Desc:   state.Direction == SortDescending,
			})
		}
	}
	return query
}

// applyPagination limits the query to the requested page unless the page
// size is PageSizeAll.
func (s *ServerQuery) applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	page = max(page, 1)
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

// Run executes the total count, the filtered count and the page query for q.
func (s *ServerQuery) Run(ctx context.Context, q Query) (ServerResult, error) {
	if err := s.Validate(); err != nil {
		return ServerResult{}, err
	}

	baseQuery := s.buildBaseQuery(ctx)
	filteredQuery := s.applySearch(baseQuery, q.Search).Session(&gorm.Session{})

	var result ServerResult
	if err := baseQuery.Count(&result.Total).Error; err != nil {
		return ServerResult{}, err
	}
	if err := filteredQuery.Count(&result.Filtered).Error; err != nil {
		return ServerResult{}, err
	}

	query := s.applyOrder(filteredQuery, q.Sort)
	query = s.applyPagination(query, q.Page, q.PageSize)

	var raw []map[string]any
	if err := query.Find(&raw).Error; err != nil {
		return ServerResult{}, err
	}
	result.Rows = normalizeRows(raw)
	if result.Rows == nil {
		result.Rows = []Row{}
	}
	return result, nil
}

// lastPage reports the last page of result when q asks for a page past it.
func lastPage(result ServerResult, q Query) (int, bool) {
	if len(result.Rows) > 0 || result.Filtered == 0 || q.PageSize <= 0 {
		return 0, false
	}
	last := int((result.Filtered + int64(q.PageSize) - 1) / int64(q.PageSize))
	return last, q.Page > last
}

// Fill runs the current query of the controlled grid g once and supplies the
// result to it. A page past the end of the matching rows is moved to the last
// page. A failed query leaves g errored and is returned.
func (s *ServerQuery) Fill(ctx context.Context, g *Grid) error {
	q := g.Query()
	result, err := s.Run(ctx, q)
	if err == nil {
		if last, past := lastPage(result, q); past {
			g.SetPage(last)
			q = g.Query()
			result, err = s.Run(ctx, q)
		}
	}
	if err != nil {
		_ = g.SetError(err)
		return err
	}
	return g.SetResult(result.Rows, int(result.Filtered), int(result.Total))
}

// Bind drives a controlled grid from the database: it loads the grid's
// current query and reloads on every search, sort and page change. Queries
// run synchronously inside the grid's change notification. When queries
// overlap, only the most recently started one updates the grid.
func (s *ServerQuery) Bind(ctx context.Context, g *Grid) error {
	g.Controlled()
	logger := g.Logger()

	var (
		mu     sync.Mutex
		latest uint64
	)
	load := func(q Query) {
		mu.Lock()
		latest++
		gen := latest
		mu.Unlock()

		result, err := s.Run(ctx, q)

		mu.Lock()
		if gen != latest {
			mu.Unlock()
			logger.Debug("discarding stale server query", "component", "datagrid", "page", q.Page)
			return
		}
		if err != nil {
			_ = g.SetError(err)
			mu.Unlock()
			logger.Warn("server query failed", "component", "datagrid", "error", err)
			return
		}
		if last, past := lastPage(result, q); past {
			mu.Unlock()
			g.SetPage(last)
			return
		}
		_ = g.SetResult(result.Rows, int(result.Filtered), int(result.Total))
		mu.Unlock()
	}
	g.OnQuery(load)

	if err := s.Validate(); err != nil {
		return err
	}
	load(g.Query())
	return nil
}
