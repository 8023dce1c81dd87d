package datagrid

// PageSizeAll is the page size sentinel that disables pagination and shows
// every row on a single page.
const PageSizeAll = -1

// TotalUnknown tells SetRows that the caller does not know the total row
// count, in which case the length of the supplied rows is used.
const TotalUnknown = -1

// Constants for specifying sort direction in requests and links.
const (
	orderAscending  = "asc"  // Sort in ascending order.
	orderDescending = "desc" // Sort in descending order.
	orderNone       = "none" // No sort.
)

// Constants for the messages shown by the presentation shell.
const (
	messageNoData  = "No data available"
	messageLoading = "Loading..."
	labelAll       = "All"
)

// Content types used by export destinations and the HTTP handler.
const (
	contentTypeCSV     = "text/csv; charset=utf-8"
	contentTypeHTML    = "text/html; charset=utf-8"
	contentTypeJSON    = "application/json"
	contentTypeParquet = "application/vnd.apache.parquet"
)

// maxPayloadBytes caps the body read by the HTTP loader.
const maxPayloadBytes = 64 << 20

// dateLayout is used to stamp export file names.
const dateLayout = "2006-01-02"
