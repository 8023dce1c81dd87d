package datagrid

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Request represents the grid state carried by an HTTP request. Nil fields
// were absent from the request and leave the grid state untouched.
//
// Fields:
//   - Draw: The draw counter echoed in JSON responses.
//   - Search: The search term.
//   - Sort: The sort state, from the "sort" and "dir" parameters.
//   - Page: The 1-based page.
//   - Length: The page size, PageSizeAll for all rows.
//   - Format: The representation asked for: "html", "json" or an export kind.
type Request struct {
	Draw   int
	Search *string
	Sort   *SortState
	Page   *int
	Length *int
	Format string
}

// ParseRequest parses grid parameters from the given http request.
//
// It reads the draw, search, sort, dir, page, length and format parameters.
// Numbers that do not parse, unknown directions and page sizes that are
// neither positive nor PageSizeAll are reported as errors.
func ParseRequest(r *http.Request) (*Request, error) {
	var data Request

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form: %v", err)
	}

	if v := r.Form.Get("draw"); v != "" {
		draw, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value for draw: %v", err)
		}
		data.Draw = draw
	}

	if r.Form.Has("search") {
		search := r.Form.Get("search")
		data.Search = &search
	}

	if r.Form.Has("sort") || r.Form.Has("dir") {
		dir, err := ParseSortDirection(r.Form.Get("dir"))
		if err != nil {
			return nil, fmt.Errorf("invalid value for dir: %v", err)
		}
		state := SortState{Key: r.Form.Get("sort"), Direction: dir}
		if state.Key != "" && !r.Form.Has("dir") {
			state.Direction = SortAscending
		}
		if !state.IsSorted() {
			state = SortState{}
		}
		data.Sort = &state
	}

	if v := r.Form.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value for page: %v", err)
		}
		data.Page = &page
	}

	if v := r.Form.Get("length"); v != "" {
		length, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value for length: %v", err)
		}
		if !validPageSize(length) {
			return nil, fmt.Errorf("invalid value for length: %w", ErrInvalidPageSize)
		}
		data.Length = &length
	}

	data.Format = strings.ToLower(r.Form.Get("format"))

	return &data, nil
}

// Apply applies the request to the grid in the order a user would: search,
// page size and sort first, the page last, so an explicit page survives the
// reset that search and page size changes cause. Unchanged values are not
// reapplied.
func (req *Request) Apply(g *Grid) error {
	q := g.Query()

	if req.Search != nil && *req.Search != q.Search {
		g.SetSearch(*req.Search)
	}
	if req.Length != nil && *req.Length != q.PageSize {
		if err := g.SetPageSize(*req.Length); err != nil {
			return err
		}
	}
	if req.Sort != nil && *req.Sort != q.Sort {
		if err := g.SetSort(*req.Sort); err != nil {
			return err
		}
	}
	if req.Page != nil {
		g.SetPage(*req.Page)
	}
	return nil
}
