package datagrid

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestNewResponse(t *testing.T) {
	columns := []Column{
		{Key: "name", Filterable: true},
		{Key: "age", Render: func(value any, _ Row) any { return DisplayString(value) + " yrs" }},
	}
	g := New("People", columns...).
		UseLoader(staticLoader(map[string]Payload{"/p": {Rows: []Row{
			{"name": "Ana", "age": 30, "secret": "s1"},
			{"name": "Bob", "age": 25, "secret": "s2"},
			{"name": "Anabel", "age": 41, "secret": "s3"},
		}, Count: Int(99)}})).
		Endpoint("/p")
	waitSettled(t, g.Mount(t.Context()))
	g.SetSearch("ana")

	resp := NewResponse(g.View(), 7)

	if resp.Draw != 7 || resp.Status != "ready" {
		t.Errorf("unexpected draw %d status %q", resp.Draw, resp.Status)
	}
	if resp.RecordsTotal != 3 || resp.RecordsFiltered != 2 {
		t.Errorf("expected 2 of 3 records, got %d of %d", resp.RecordsFiltered, resp.RecordsTotal)
	}
	if resp.Count == nil || *resp.Count != 99 {
		t.Errorf("expected count 99, got %v", resp.Count)
	}
	if len(resp.Data) != 2 || resp.Data[0]["age"] != "30 yrs" {
		t.Errorf("unexpected data %v", resp.Data)
	}
	if _, ok := resp.Data[0]["secret"]; ok {
		t.Error("data leaked a field without a column")
	}
	if resp.Summary != "Showing 1 to 2 of 2 records (filtered from 3 total records)" {
		t.Errorf("unexpected summary %q", resp.Summary)
	}
}

func TestResponseWriteJSON(t *testing.T) {
	resp := Response{
		Draw:            1,
		Status:          "ready",
		RecordsTotal:    1,
		RecordsFiltered: 1,
		Data:            []map[string]any{{"link": "<a>x</a>"}},
		Page:            1,
		Pages:           1,
		PageSize:        10,
	}

	var buf bytes.Buffer
	if err := resp.WriteJSON(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"<a>x</a>"`) {
		t.Errorf("markup was escaped: %s", buf.String())
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"draw", "status", "recordsTotal", "recordsFiltered", "data", "page", "pages", "pageSize"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	for _, key := range []string{"count", "summary", "error"} {
		if _, ok := decoded[key]; ok {
			t.Errorf("empty key %q was not omitted", key)
		}
	}
}
