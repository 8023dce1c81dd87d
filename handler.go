package datagrid

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
)

// Handler serves a single grid over HTTP.
//
// Each GET works on its own copy of the grid (see Grid.Fork): the request
// parameters (see ParseRequest) are applied to the copy, which is answered
// with the HTML fragment, the JSON response or an export, depending on the
// format parameter. Requests never change the served grid, so clients do not
// see each other's search, sort or page.
type Handler struct {
	grid   *Grid
	query  *ServerQuery
	logger *slog.Logger
}

// NewHandler returns a Handler for g.
func NewHandler(g *Grid) *Handler {
	return &Handler{grid: g, logger: slog.Default()}
}

// WithLogger sets the logger used for request errors.
func (h *Handler) WithLogger(logger *slog.Logger) *Handler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithServerQuery makes the handler load every request's rows through q.
// The served grid must be in controlled mode. Exports query every matching
// row.
func (h *Handler) WithServerQuery(q *ServerQuery) *Handler {
	h.query = q
	return h
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	req, err := ParseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	g := h.grid.Fork()
	if err := req.Apply(g); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	export := req.Format != "" && req.Format != "html" && req.Format != "json"
	var kind ExportKind
	if export {
		if kind, err = ParseExportKind(req.Format); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !g.Config().Export.Enabled(kind) {
			http.Error(w, fmt.Sprintf("%s: %v", kind, ErrExportDisabled), http.StatusNotFound)
			return
		}
	}

	if h.query != nil {
		if export {
			g.DisablePagination()
		}
		if err := h.query.Fill(r.Context(), g); err != nil {
			if export {
				h.fail(w, r, err)
				return
			}
			h.logger.Warn("server query failed", "component", "datagrid", "path", r.URL.Path, "error", err)
		}
	}

	switch {
	case export:
		if err := g.Export(kind, HTTPDestination{W: w}); err != nil {
			h.fail(w, r, err)
		}
	case req.Format == "json":
		var buf bytes.Buffer
		if err := NewResponse(g.View(), req.Draw).WriteJSON(&buf); err != nil {
			h.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write(buf.Bytes())
	default:
		var buf bytes.Buffer
		if err := RenderHTML(&buf, g.View()); err != nil {
			h.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeHTML)
		_, _ = w.Write(buf.Bytes())
	}
}

// fail logs err and answers 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("grid request failed", "component", "datagrid", "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
