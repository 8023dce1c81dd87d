package datagrid

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/goccy/go-json"
)

func newTestHandler(t *testing.T) (*Handler, *Grid) {
	t.Helper()
	g := New("Visitor Register", peopleColumns()...).
		UseLoader(staticLoader(map[string]Payload{"/p": {Rows: peopleRows()}})).
		Endpoint("/p")
	waitSettled(t, g.Mount(t.Context()))
	return NewHandler(g), g
}

func TestHandlerServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		target      string
		status      int
		contentType string
		contains    string
	}{
		{name: "html_default", method: http.MethodGet, target: "/", status: http.StatusOK, contentType: contentTypeHTML, contains: "datagrid-table"},
		{name: "json", method: http.MethodGet, target: "/?format=json&draw=3", status: http.StatusOK, contentType: contentTypeJSON, contains: `"draw":3`},
		{name: "csv_export", method: http.MethodGet, target: "/?format=csv", status: http.StatusOK, contentType: contentTypeCSV, contains: `"Name","Email","Age"`},
		{name: "print_export", method: http.MethodGet, target: "/?format=print", status: http.StatusOK, contentType: contentTypeHTML, contains: "window.print()"},
		{name: "disabled_export", method: http.MethodGet, target: "/?format=parquet", status: http.StatusNotFound},
		{name: "unknown_format", method: http.MethodGet, target: "/?format=xlsx", status: http.StatusBadRequest},
		{name: "bad_length", method: http.MethodGet, target: "/?length=0", status: http.StatusBadRequest},
		{name: "unknown_sort_column", method: http.MethodGet, target: "/?sort=missing", status: http.StatusBadRequest},
		{name: "post_not_allowed", method: http.MethodPost, target: "/", status: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.contentType != "" && rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("expected content type %q, got %q", tt.contentType, rec.Header().Get("Content-Type"))
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q: %s", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestHandlerRequestsDoNotShareState(t *testing.T) {
	h, g := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?search=example&sort=name&dir=desc&length=50&format=json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.RecordsFiltered != 3 || resp.RecordsTotal != 4 || resp.PageSize != 50 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Data[0]["name"] != "Straße" {
		t.Errorf("expected descending order, got %v", resp.Data)
	}

	q := g.Query()
	if q.Search != "" || q.Sort.IsSorted() || q.PageSize != 10 {
		t.Errorf("request changed the served grid: %+v", q)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?search=Bob", nil))
	if !strings.Contains(rec.Body.String(), "bob@example.com") || strings.Contains(rec.Body.String(), "ana@example.com") {
		t.Errorf("expected only Bob in the searched page: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?format=csv", nil))
	if disposition := rec.Header().Get("Content-Disposition"); !strings.Contains(disposition, "visitor-register_") {
		t.Errorf("unexpected disposition %q", disposition)
	}
	if lines := strings.Count(rec.Body.String(), "\n"); lines != 5 {
		t.Errorf("expected a header and 4 rows, got %d lines: %s", lines, rec.Body.String())
	}
}

func TestHandlerServerQuery(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(30)))
	mock.ExpectQuery(qm("SELECT count(*) FROM `users` WHERE (`name` LIKE ? OR `email` LIKE ?)")).
		WithArgs("%john%", "%john%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(qm("SELECT * FROM `users` WHERE (`name` LIKE ? OR `email` LIKE ?) LIMIT ?")).
		WithArgs("%john%", "%john%", 10).
		WillReturnRows(userRows())

	mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(30)))
	mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(30)))
	mock.ExpectQuery("^" + qm("SELECT * FROM `users`") + "$").
		WillReturnRows(userRows())

	g := New("Users", userColumns()...).Controlled()
	h := NewHandler(g).WithServerQuery(NewServerQuery(db, userColumns()...).Model("users"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?search=john&format=json", nil))
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.RecordsTotal != 30 || resp.RecordsFiltered != 2 || len(resp.Data) != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Summary != "Showing 1 to 2 of 2 records (filtered from 30 total records)" {
		t.Errorf("unexpected summary %q", resp.Summary)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?format=csv", nil))
	if lines := strings.Count(rec.Body.String(), "\n"); lines != 3 {
		t.Errorf("expected a header and 2 rows, got %d lines: %s", lines, rec.Body.String())
	}

	if q := g.Query(); q.Search != "" {
		t.Errorf("request changed the served grid: %+v", q)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestHandlerServerQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).WillReturnError(errors.New("connection refused"))
	mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).WillReturnError(errors.New("connection refused"))

	h := NewHandler(New("Users", userColumns()...).Controlled()).
		WithServerQuery(NewServerQuery(db, userColumns()...).Model("users"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("expected the error panel, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?format=csv", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500 for a failed export, got %d", rec.Code)
	}
}
