package cmd

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	datagrid "github.com/ZihxS/golang-datagrid"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Tables</title></head>
<body>
<h1>Tables</h1>
<ul>
{{- range . }}
<li><a href="/tables/{{ .Name }}">{{ .Title }}</a> (<a href="/tables/{{ .Name }}?format=json">json</a>)</li>
{{- end }}
</ul>
</body>
</html>
`))

type indexEntry struct {
	Name  string
	Title string
}

// newServeMux routes /tables/{name} to the grid handler of each table and
// serves an index of the tables at /.
func newServeMux(tables []*tableGrid, logger *slog.Logger) *http.ServeMux {
	handlers := make(map[string]http.Handler, len(tables))
	entries := make([]indexEntry, 0, len(tables))
	for _, tg := range tables {
		name := tg.table.Name
		handler := datagrid.NewHandler(tg.grid).WithLogger(logger.With("table", name))
		if tg.query != nil {
			handler.WithServerQuery(tg.query)
		}
		handlers[name] = handler
		entries = append(entries, indexEntry{Name: name, Title: tg.table.GridTitle()})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/tables/{name}", func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.PathValue("name")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler.ServeHTTP(w, r)
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, entries); err != nil {
			logger.Error("render index", "error", err)
		}
	})
	return mux
}

func newServeCmd(app *App, opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve every configured table over HTTP",
		Long: `Serve loads every configured table and serves it at /tables/NAME as an
HTML fragment, as JSON with ?format=json, or as an export with
?format=csv|pdf|print|parquet. Search, sort and paging follow the
search, sort, dir, page and length query parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(app, opts)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = s.cfg.Server.Addr
			}

			ctx := cmd.Context()
			tables := make([]*tableGrid, 0, len(s.cfg.Tables))
			for _, table := range s.cfg.Tables {
				tg, err := s.grid(table.Name)
				if err != nil {
					return err
				}
				defer tg.grid.Close()
				if err := tg.Start(ctx); err != nil {
					slog.Warn("table failed to load", "table", table.Name, "error", err)
				}
				tables = append(tables, tg)
			}
			if len(tables) == 0 {
				return errors.New("no tables configured")
			}

			return serve(ctx, addr, s.cfg.Server.ShutdownTimeout, newServeMux(tables, slog.Default()))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from the config)")
	return cmd
}

// serve runs handler on addr until ctx is done, then shuts the server down.
func serve(ctx context.Context, addr string, shutdownTimeout time.Duration, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
