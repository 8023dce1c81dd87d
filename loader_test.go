package datagrid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestHTTPLoaderURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		endpoint string
		expected string
	}{
		{name: "relative", baseURL: "https://api.example.com/v1/", endpoint: "/users", expected: "https://api.example.com/v1/users"},
		{name: "absolute", baseURL: "https://api.example.com", endpoint: "http://other.example.com/x", expected: "http://other.example.com/x"},
		{name: "no_base", baseURL: "", endpoint: "/users", expected: "/users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewHTTPLoader(tt.baseURL).URL(tt.endpoint); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestHTTPLoaderLoad(t *testing.T) {
	var (
		mu                                      sync.Mutex
		gotAuth, gotAccept, gotCustom, gotQuery string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotCustom = r.Header.Get("X-Tenant")
		gotQuery = r.URL.RawQuery
		mu.Unlock()
		switch r.URL.Path {
		case "/results":
			_, _ = w.Write([]byte(`{"results":[{"id":1},{"id":2}],"count":42}`))
		case "/broken":
			_, _ = w.Write([]byte(`{"results":`))
		case "/nested":
			_, _ = w.Write([]byte(`{"payload":{"rows":[{"id":7}]}}`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer server.Close()

	loader := NewHTTPLoader(server.URL)
	loader.Token = "secret"
	loader.Header.Set("X-Tenant", "acme")

	t.Run("results_and_count", func(t *testing.T) {
		p, err := loader.Load(context.Background(), "/results")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(p.Rows) != 2 {
			t.Errorf("expected 2 rows, got %d", len(p.Rows))
		}
		if p.Count == nil || *p.Count != 42 {
			t.Errorf("expected count 42, got %v", p.Count)
		}
		mu.Lock()
		defer mu.Unlock()
		if gotAuth != "Bearer secret" || gotAccept != contentTypeJSON || gotCustom != "acme" {
			t.Errorf("unexpected headers auth=%q accept=%q tenant=%q", gotAuth, gotAccept, gotCustom)
		}
		if gotQuery != "" {
			t.Errorf("expected no query parameters, got %q", gotQuery)
		}
	})

	t.Run("error_status", func(t *testing.T) {
		_, err := loader.Load(context.Background(), "/missing")
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected FetchError, got %v", err)
		}
		if fetchErr.Status != http.StatusNotFound || fetchErr.Endpoint != "/missing" {
			t.Errorf("unexpected error %+v", fetchErr)
		}
	})

	t.Run("malformed_body", func(t *testing.T) {
		_, err := loader.Load(context.Background(), "/broken")
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) || fetchErr.Status != 0 {
			t.Errorf("expected decode FetchError, got %v", err)
		}
	})

	t.Run("rows_query", func(t *testing.T) {
		nested := NewHTTPLoader(server.URL)
		if err := nested.SetRowsQuery(".payload.rows"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p, err := nested.Load(context.Background(), "/nested")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(p.Rows) != 1 || p.Rows[0]["id"] != float64(7) {
			t.Errorf("unexpected rows %v", p.Rows)
		}
	})

	t.Run("invalid_rows_query", func(t *testing.T) {
		if err := NewHTTPLoader(server.URL).SetRowsQuery(".["); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("canceled_context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := loader.Load(ctx, "/results")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestFetchErrorMessage(t *testing.T) {
	withStatus := &FetchError{Endpoint: "/users", Status: 500, Err: errors.New("boom")}
	if got := withStatus.Error(); got != "fetch /users: status 500: boom" {
		t.Errorf("unexpected message %q", got)
	}
	withoutStatus := &FetchError{Endpoint: "/users", Err: errors.New("boom")}
	if got := withoutStatus.Error(); got != "fetch /users: boom" {
		t.Errorf("unexpected message %q", got)
	}
}
