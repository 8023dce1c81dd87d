package datagrid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/itchyny/gojq"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPLoader loads rows with a GET request per endpoint.
//
// Relative endpoints are joined to BaseURL; absolute URLs are used as they
// are. Any non-2xx status is a failure. No request parameters are added: the
// grid pages, sorts and searches the whole result locally.
type HTTPLoader struct {
	Client  *http.Client
	BaseURL string
	Header  http.Header
	Token   string

	rowsQuery *gojq.Code
}

// NewHTTPLoader returns an HTTPLoader with a client using a 30 second timeout.
func NewHTTPLoader(baseURL string) *HTTPLoader {
	return &HTTPLoader{
		Client:  &http.Client{Timeout: defaultHTTPTimeout},
		BaseURL: baseURL,
		Header:  make(http.Header),
	}
}

// SetRowsQuery installs a jq expression that selects the payload document
// out of the response before the row array is picked, for APIs that nest
// rows deeper than "data" or "results". An empty query removes it.
func (l *HTTPLoader) SetRowsQuery(query string) error {
	if query == "" {
		l.rowsQuery = nil
		return nil
	}
	parsed, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("parse rows query: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return fmt.Errorf("compile rows query: %w", err)
	}
	l.rowsQuery = code
	return nil
}

// URL returns the absolute URL requested for endpoint.
func (l *HTTPLoader) URL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if l.BaseURL == "" {
		return endpoint
	}
	return strings.TrimRight(l.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// Load implements the Loader interface.
func (l *HTTPLoader) Load(ctx context.Context, endpoint string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL(endpoint), nil)
	if err != nil {
		return Payload{}, &FetchError{Endpoint: endpoint, Err: err}
	}
	for key, values := range l.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", contentTypeJSON)
	if l.Token != "" {
		req.Header.Set("Authorization", "Bearer "+l.Token)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Payload{}, &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Payload{}, &FetchError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("unexpected response %q", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return Payload{}, &FetchError{Endpoint: endpoint, Err: err}
	}

	var p Payload
	if l.rowsQuery != nil {
		p, err = decodePayloadQuery(ctx, body, l.rowsQuery)
	} else {
		p, err = DecodePayload(body)
	}
	if err != nil {
		return Payload{}, &FetchError{Endpoint: endpoint, Err: err}
	}
	return p, nil
}
