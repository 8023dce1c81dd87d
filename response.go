package datagrid

import (
	"io"

	"github.com/goccy/go-json"
)

// Response is the DataTables compatible JSON form of a view.
//
// Fields:
//   - Draw: The draw counter of the request being answered.
//   - RecordsTotal: The number of rows before the search.
//   - RecordsFiltered: The number of rows matching the search.
//   - Data: The rendered cells of the current page keyed by column key.
//   - Page, Pages, PageSize: The pagination state.
//   - Count: The server-declared total, when the source had one.
//   - Summary: The record count line.
//   - Error: The fetch error message of an errored grid.
type Response struct {
	Draw            int              `json:"draw"`
	Status          string           `json:"status"`
	RecordsTotal    int              `json:"recordsTotal"`
	RecordsFiltered int              `json:"recordsFiltered"`
	Data            []map[string]any `json:"data"`
	Page            int              `json:"page"`
	Pages           int              `json:"pages"`
	PageSize        int              `json:"pageSize"`
	Count           *int             `json:"count,omitempty"`
	Summary         string           `json:"summary,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// NewResponse builds the JSON response for a view.
func NewResponse(v View, draw int) Response {
	return Response{
		Draw:            draw,
		Status:          v.Status.String(),
		RecordsTotal:    v.TotalRecords,
		RecordsFiltered: v.FilteredRecords,
		Data:            projectRows(v.Page.Rows, v.Columns),
		Page:            v.Page.CurrentPage,
		Pages:           v.Page.TotalPages,
		PageSize:        v.Page.PageSize,
		Count:           v.ServerCount,
		Summary:         v.Summary,
		Error:           v.Error,
	}
}

// WriteJSON encodes the response to w.
func (r Response) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}
