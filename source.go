package datagrid

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/itchyny/gojq"
)

// Mode selects where a grid's rows come from.
type Mode int

const (
	// ModeRemote makes the grid fetch its own rows through a Loader and run
	// search, sort and pagination locally.
	ModeRemote Mode = iota
	// ModeControlled makes the grid display rows owned by its caller, who
	// also owns paging, sorting and search.
	ModeControlled
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeRemote:
		return "remote"
	case ModeControlled:
		return "controlled"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// Payload is the result of a single load.
//
// Count carries a server-declared total when the response had one. It is for
// display only and does not change pagination.
type Payload struct {
	Rows  []Row
	Count *int
}

// Loader fetches the rows behind an endpoint identifier.
type Loader interface {
	Load(ctx context.Context, endpoint string) (Payload, error)
}

// LoaderFunc adapts an ordinary function to the Loader interface.
type LoaderFunc func(ctx context.Context, endpoint string) (Payload, error)

// Load calls f(ctx, endpoint).
func (f LoaderFunc) Load(ctx context.Context, endpoint string) (Payload, error) {
	return f(ctx, endpoint)
}

// DecodePayload decodes a remote response body.
//
// It accepts a bare array of rows, an object with a "data" array, or an
// object with a "results" array and an optional numeric "count". Any other
// well-formed JSON yields an empty payload. Array elements that are not
// objects are skipped. Malformed JSON is an error.
func DecodePayload(body []byte) (Payload, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return payloadFromDocument(doc), nil
}

// decodePayloadQuery decodes body, runs code against it and reads the first
// result as the payload document.
func decodePayloadQuery(ctx context.Context, body []byte, code *gojq.Code) (Payload, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}

	iter := code.RunWithContext(ctx, doc)
	v, ok := iter.Next()
	if !ok {
		return Payload{}, nil
	}
	if err, ok := v.(error); ok {
		return Payload{}, fmt.Errorf("rows query: %w", err)
	}
	return payloadFromDocument(v), nil
}

// payloadFromDocument picks the row array out of a decoded JSON document.
func payloadFromDocument(doc any) Payload {
	switch v := doc.(type) {
	case []any:
		return Payload{Rows: rowsFromArray(v)}
	case map[string]any:
		if data, ok := v["data"].([]any); ok {
			return Payload{Rows: rowsFromArray(data)}
		}
		if results, ok := v["results"].([]any); ok {
			p := Payload{Rows: rowsFromArray(results)}
			if count, ok := v["count"].(float64); ok {
				n := int(count)
				p.Count = &n
			}
			return p
		}
	}
	return Payload{Rows: []Row{}}
}

// rowsFromArray keeps the object elements of a decoded JSON array.
func rowsFromArray(items []any) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, Row(m))
		}
	}
	return rows
}
