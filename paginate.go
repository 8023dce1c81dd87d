package datagrid

import "slices"

// PageResult is the output of the paginate stage.
//
// Fields:
//   - Rows: The rows on the current page.
//   - CurrentPage: The 1-based page actually shown, after clamping.
//   - PageSize: The page size used. PageSizeAll when pagination is off.
//   - TotalPages: The page count, never less than 1.
//   - StartRecord, EndRecord: 1-based inclusive record range of the page,
//     both 0 when there are no rows.
//   - TotalRecords: The number of rows paginated over.
type PageResult struct {
	Rows         []Row
	CurrentPage  int
	PageSize     int
	TotalPages   int
	StartRecord  int
	EndRecord    int
	TotalRecords int
}

// HasPrev reports whether there is a page before the current one.
func (p PageResult) HasPrev() bool { return p.CurrentPage > 1 }

// HasNext reports whether there is a page after the current one.
func (p PageResult) HasNext() bool { return p.CurrentPage < p.TotalPages }

// Paginate returns the rows of the given 1-based page.
//
// A pageSize of PageSizeAll (or any non-positive size) puts every row on a
// single page. Pages outside 1..TotalPages are clamped into range, so a
// non-empty row set always yields a non-empty page.
func Paginate(rows []Row, page, pageSize int) PageResult {
	n := len(rows)
	if pageSize <= 0 {
		pageSize = PageSizeAll
	}

	totalPages := 1
	if pageSize != PageSizeAll && n > 0 {
		totalPages = (n + pageSize - 1) / pageSize
	}
	page = clampPage(page, totalPages)

	start, end := 0, n
	if pageSize != PageSizeAll {
		start = (page - 1) * pageSize
		end = min(start+pageSize, n)
	}

	result := PageResult{
		Rows:         slices.Clip(rows[start:end]),
		CurrentPage:  page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		TotalRecords: n,
	}
	if n > 0 {
		result.StartRecord = start + 1
		result.EndRecord = end
	}
	return result
}

// pageWindow describes an externally paginated page: rows already sliced by
// the caller, positioned within a result set of total rows.
func pageWindow(rows []Row, page, pageSize, total int) PageResult {
	n := len(rows)
	if pageSize <= 0 {
		pageSize = PageSizeAll
	}
	if total < n {
		total = n
	}

	totalPages := 1
	if pageSize != PageSizeAll && total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	page = clampPage(page, totalPages)

	result := PageResult{
		Rows:         rows,
		CurrentPage:  page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		TotalRecords: total,
	}
	if n > 0 {
		offset := 0
		if pageSize != PageSizeAll {
			offset = (page - 1) * pageSize
		}
		result.StartRecord = offset + 1
		result.EndRecord = offset + n
	}
	return result
}

// clampPage keeps page within 1..totalPages.
func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
