package datagrid

import (
	"bufio"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
)

// ExportKind names an export destination format.
type ExportKind int

// Supported export kinds. PDF and Print share the print rendering path and
// differ only in how they are offered.
const (
	ExportCSV ExportKind = iota
	ExportPDF
	ExportPrint
	ExportParquet
)

var exportKinds = []ExportKind{ExportCSV, ExportPDF, ExportPrint, ExportParquet}

// String returns the request form of an ExportKind.
func (k ExportKind) String() string {
	switch k {
	case ExportCSV:
		return "csv"
	case ExportPDF:
		return "pdf"
	case ExportPrint:
		return "print"
	case ExportParquet:
		return "parquet"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Label returns the text of the export affordance.
func (k ExportKind) Label() string {
	switch k {
	case ExportCSV:
		return "CSV"
	case ExportPDF:
		return "PDF"
	case ExportPrint:
		return "Print"
	case ExportParquet:
		return "Parquet"
	default:
		return k.String()
	}
}

// ParseExportKind parses the request form of an export kind.
func ParseExportKind(s string) (ExportKind, error) {
	for _, kind := range exportKinds {
		if strings.EqualFold(s, kind.String()) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownExport)
}

// Destination receives finished exports. Implementations return
// ErrDestinationUnavailable when they cannot be created, in which case the
// grid drops the export without reporting an error.
type Destination interface {
	// Download offers body as a file called name.
	Download(name, contentType string, body []byte) error
	// OpenPrint opens a standalone HTML document and starts printing it.
	OpenPrint(name string, document []byte) error
}

// fileStem returns the sanitized title plus the date, without extension.
func fileStem(title string, t time.Time) string {
	s := slug.Make(title)
	if s == "" {
		s = "table"
	}
	return s + "_" + t.Format(dateLayout)
}

// CSVFileName returns the download name of a CSV export, for example
// "visitor-register_2024-05-01.csv".
func CSVFileName(title string, t time.Time) string {
	return fileStem(title, t) + ".csv"
}

// PrintFileName returns the name of a print document.
func PrintFileName(title string, t time.Time) string {
	return fileStem(title, t) + ".html"
}

// ParquetFileName returns the download name of a parquet export.
func ParquetFileName(title string, t time.Time) string {
	return fileStem(title, t) + ".parquet"
}

// csvField quotes a value, doubling any quote characters inside it.
func csvField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteCSV writes the label header and one line per row. Every field is
// quoted, nil values are written as empty fields and render functions are
// not called.
func WriteCSV(w io.Writer, columns []Column, rows []Row) error {
	bw := bufio.NewWriter(w)
	fields := make([]string, len(columns))

	for i, col := range columns {
		fields[i] = csvField(col.title())
	}
	if _, err := bw.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		for i, col := range columns {
			fields[i] = csvField(DisplayString(col.Value(row)))
		}
		if _, err := bw.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return bw.Flush()
}

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body{font-family:Arial,Helvetica,sans-serif;margin:20px;color:#000}
h1{font-size:18px;margin-bottom:12px}
table{width:100%;border-collapse:collapse;font-size:12px}
th,td{border:1px solid #000;padding:6px 8px;text-align:left;vertical-align:top}
th{background:#f0f0f0}
@media print{body{margin:0}thead{display:table-header-group}tr{page-break-inside:avoid}}
</style>
</head>
<body onload="window.print()">
<h1>{{.Title}}</h1>
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// WritePrintHTML writes a standalone, print-friendly HTML document holding
// the title and a bordered table of raw values. Render functions are not
// called.
func WritePrintHTML(w io.Writer, title string, columns []Column, rows []Row) error {
	data := struct {
		Title   string
		Headers []string
		Rows    [][]string
	}{
		Title:   title,
		Headers: make([]string, len(columns)),
		Rows:    make([][]string, len(rows)),
	}
	for i, col := range columns {
		data.Headers[i] = col.title()
	}
	for i, row := range rows {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = DisplayString(col.Value(row))
		}
		data.Rows[i] = cells
	}
	return printTemplate.Execute(w, data)
}

// FileDestination writes exports into a directory. Print documents are
// written as HTML files; opening them for printing is left to Opener when
// it is set.
type FileDestination struct {
	Dir    string
	Opener func(path string) error

	mu      sync.Mutex
	written []string
}

// NewFileDestination returns a FileDestination writing into dir.
func NewFileDestination(dir string) *FileDestination {
	return &FileDestination{Dir: dir}
}

// Written returns the paths written so far.
func (d *FileDestination) Written() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.written...)
}

func (d *FileDestination) write(name string, body []byte) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDestinationUnavailable, err)
	}
	path := filepath.Join(d.Dir, filepath.Base(name))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDestinationUnavailable, err)
	}
	d.mu.Lock()
	d.written = append(d.written, path)
	d.mu.Unlock()
	return path, nil
}

// Download implements the Destination interface.
func (d *FileDestination) Download(name, _ string, body []byte) error {
	_, err := d.write(name, body)
	return err
}

// OpenPrint implements the Destination interface.
func (d *FileDestination) OpenPrint(name string, document []byte) error {
	path, err := d.write(name, document)
	if err != nil {
		return err
	}
	if d.Opener != nil {
		if err := d.Opener(path); err != nil {
			return fmt.Errorf("%w: %v", ErrDestinationUnavailable, err)
		}
	}
	return nil
}

// HTTPDestination answers a single HTTP request with the export. Downloads
// are sent as attachments, print documents inline.
type HTTPDestination struct {
	W http.ResponseWriter
}

// Download implements the Destination interface.
func (d HTTPDestination) Download(name, contentType string, body []byte) error {
	d.W.Header().Set("Content-Type", contentType)
	d.W.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	d.W.WriteHeader(http.StatusOK)
	_, err := d.W.Write(body)
	return err
}

// OpenPrint implements the Destination interface.
func (d HTTPDestination) OpenPrint(name string, document []byte) error {
	d.W.Header().Set("Content-Type", contentTypeHTML)
	d.W.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	d.W.WriteHeader(http.StatusOK)
	_, err := d.W.Write(document)
	return err
}
