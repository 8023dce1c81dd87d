package datagrid

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// DisplayString converts a raw cell value into the text used for search
// matching and exports.
//
// nil becomes the empty string, byte slices are read as text, times are
// formatted as RFC 3339, and maps and slices are JSON encoded. Floats are
// written in plain decimal, so the JSON number 20240101 reads "20240101"
// rather than "2.0240101e+07". Everything else goes through fmt.Sprint.
func DisplayString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case map[string]any, Row, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// normalizeRows takes a slice of maps as returned by a database scan and
// returns rows where byte slices are converted to strings, so they search,
// sort and export as text. The function returns nil if the input is nil.
func normalizeRows(data []map[string]any) []Row {
	if data == nil {
		return nil
	}
	rows := make([]Row, len(data))
	for i, raw := range data {
		row := make(Row, len(raw))
		for key, value := range raw {
			if b, ok := value.([]byte); ok {
				row[key] = string(b)
				continue
			}
			row[key] = value
		}
		rows[i] = row
	}
	return rows
}

// projectRows returns copies of rows holding only the keys of columns. It is
// used for the JSON response so rows never leak fields that have no column.
func projectRows(rows []Row, columns []Column) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(columns))
		for _, col := range columns {
			m[col.Key] = col.Cell(row)
		}
		out[i] = m
	}
	return out
}
