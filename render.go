package datagrid

import (
	"html/template"
	"io"
	"net/url"
	"strconv"
)

// htmlHeader is one column header of the rendered table.
type htmlHeader struct {
	Label     string
	Sortable  bool
	Href      string
	Indicator string
}

// htmlOption is one entry of the page size selector.
type htmlOption struct {
	Value    int
	Label    string
	Selected bool
}

// htmlLink is a pagination or export link.
type htmlLink struct {
	Label   string
	Href    string
	Current bool
}

// htmlModel is the data handed to the grid template.
type htmlModel struct {
	View       View
	Spacing    string
	Headers    []htmlHeader
	LengthMenu []htmlOption
	Rows       [][]any
	Pages      []htmlLink
	Prev, Next string
	Exports    []htmlLink
	NoData     string
	Loading    string
	Sort, Dir  string
	Paginate   bool
}

var gridTemplate = template.Must(template.New("grid").Parse(`<div class="datagrid datagrid-{{.Spacing}}">
<div class="datagrid-title">{{.View.Title}}</div>
{{- if eq .View.Status.String "loading"}}
<div class="datagrid-loading" role="status">{{.Loading}}</div>
{{- else if eq .View.Status.String "errored"}}
<div class="datagrid-error" role="alert">{{.View.Error}}</div>
{{- else}}
<form class="datagrid-controls" method="get">
{{- if .View.Config.Search}}
<label>Search <input type="search" name="search" value="{{.View.Search}}"></label>
{{- end}}
{{- if .Paginate}}
<label>Show <select name="length" onchange="this.form.submit()">
{{- range .LengthMenu}}
<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
{{- end}}
</select> entries</label>
{{- end}}
<input type="hidden" name="sort" value="{{.Sort}}">
<input type="hidden" name="dir" value="{{.Dir}}">
</form>
{{- if .Exports}}
<div class="datagrid-export">
{{- range .Exports}}
<a href="{{.Href}}">{{.Label}}</a>
{{- end}}
</div>
{{- end}}
<table class="datagrid-table">
<thead><tr>
{{- range .Headers}}
<th>{{if .Sortable}}<a href="{{.Href}}">{{.Label}}{{if .Indicator}} {{.Indicator}}{{end}}</a>{{else}}{{.Label}}{{end}}</th>
{{- end}}
</tr></thead>
<tbody>
{{- if .Rows}}
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
{{- else}}
<tr><td colspan="{{len .Headers}}" class="datagrid-empty">{{.NoData}}</td></tr>
{{- end}}
</tbody>
</table>
{{- if .View.Summary}}
<div class="datagrid-summary">{{.View.Summary}}</div>
{{- end}}
{{- if and .Paginate (gt .View.Page.TotalPages 1)}}
<nav class="datagrid-pagination">
{{- if .Prev}}<a href="{{.Prev}}">Previous</a>{{end}}
{{- range .Pages}}
{{if .Current}}<span class="current">{{.Label}}</span>{{else}}<a href="{{.Href}}">{{.Label}}</a>{{end}}
{{- end}}
{{- if .Next}}<a href="{{.Next}}">Next</a>{{end}}
</nav>
{{- end}}
{{- end}}
</div>
`))

// linkParams returns the query parameters reproducing the view's state with
// the given overrides applied.
func linkParams(v View, overrides map[string]string) string {
	params := url.Values{}
	if v.Search != "" {
		params.Set("search", v.Search)
	}
	if v.Sort.IsSorted() {
		params.Set("sort", v.Sort.Key)
		params.Set("dir", v.Sort.Direction.String())
	}
	params.Set("length", strconv.Itoa(v.Page.PageSize))
	params.Set("page", strconv.Itoa(v.Page.CurrentPage))
	for key, value := range overrides {
		if value == "" {
			params.Del(key)
			continue
		}
		params.Set(key, value)
	}
	return "?" + params.Encode()
}

// htmlCell turns a rendered cell into template data. Render functions may
// return template.HTML to emit markup; everything else is escaped text.
func htmlCell(value any) any {
	if h, ok := value.(template.HTML); ok {
		return h
	}
	return DisplayString(value)
}

// newHTMLModel builds the template data for v.
func newHTMLModel(v View) htmlModel {
	m := htmlModel{
		View:     v,
		Spacing:  string(v.Config.RowSpacing),
		NoData:   messageNoData,
		Loading:  messageLoading,
		Paginate: v.Config.Pagination,
	}
	if v.Sort.IsSorted() {
		m.Sort = v.Sort.Key
		m.Dir = v.Sort.Direction.String()
	}

	for _, col := range v.Columns {
		h := htmlHeader{Label: col.title(), Sortable: col.Sortable}
		if col.Sortable {
			next := ToggleSort(v.Sort, col)
			h.Href = linkParams(v, map[string]string{
				"sort": next.Key,
				"dir":  next.Direction.String(),
			})
			if v.Sort.Key == col.Key {
				switch v.Sort.Direction {
				case SortAscending:
					h.Indicator = "▲"
				case SortDescending:
					h.Indicator = "▼"
				}
			}
		}
		m.Headers = append(m.Headers, h)
	}

	for _, size := range v.Config.LengthMenu {
		label := strconv.Itoa(size)
		if size == PageSizeAll {
			label = labelAll
		}
		m.LengthMenu = append(m.LengthMenu, htmlOption{Value: size, Label: label, Selected: size == v.Page.PageSize})
	}

	for _, cells := range v.Cells {
		row := make([]any, len(cells))
		for i, cell := range cells {
			row[i] = htmlCell(cell)
		}
		m.Rows = append(m.Rows, row)
	}

	if v.Page.HasPrev() {
		m.Prev = linkParams(v, map[string]string{"page": strconv.Itoa(v.Page.CurrentPage - 1)})
	}
	if v.Page.HasNext() {
		m.Next = linkParams(v, map[string]string{"page": strconv.Itoa(v.Page.CurrentPage + 1)})
	}
	for p := 1; p <= v.Page.TotalPages; p++ {
		m.Pages = append(m.Pages, htmlLink{
			Label:   strconv.Itoa(p),
			Href:    linkParams(v, map[string]string{"page": strconv.Itoa(p)}),
			Current: p == v.Page.CurrentPage,
		})
	}

	for _, kind := range v.Config.Export.Kinds() {
		m.Exports = append(m.Exports, htmlLink{
			Label: kind.Label(),
			Href:  linkParams(v, map[string]string{"format": kind.String()}),
		})
	}
	return m
}

// RenderHTML writes the HTML fragment of a view: controls, table, summary
// and pagination when ready, a loading or error panel otherwise.
func RenderHTML(w io.Writer, v View) error {
	return gridTemplate.Execute(w, newHTMLModel(v))
}
