package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	datagrid "github.com/ZihxS/golang-datagrid"
	"github.com/ZihxS/golang-datagrid/internal/config"
)

// openDB opens the configured database with the mysql driver.
func openDB(dbc config.DatabaseConfig) (*gorm.DB, error) {
	if dbc.Driver != "" && dbc.Driver != "mysql" {
		return nil, fmt.Errorf("unsupported database driver %q", dbc.Driver)
	}
	db, err := gorm.Open(mysql.Open(dbc.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// session carries what the commands of one invocation share: the loaded
// configuration and the database, opened on first use.
type session struct {
	app    *App
	cfg    *config.Config
	db     *gorm.DB
	logger *slog.Logger
}

func newSession(app *App, opts *globalOptions) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	return &session{app: app, cfg: cfg, logger: slog.Default()}, nil
}

func (s *session) database() (*gorm.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	open := s.app.OpenDB
	if open == nil {
		open = openDB
	}
	db, err := open(s.cfg.Database)
	if err != nil {
		return nil, err
	}
	s.db = db
	return db, nil
}

// tableGrid is a configured grid whose rows have not been loaded yet, so
// state flags can be applied before the first load.
type tableGrid struct {
	table *config.TableConfig
	grid  *datagrid.Grid
	query *datagrid.ServerQuery
	load  func(ctx context.Context) error
}

// Start loads the grid and waits for the first fetch to settle.
func (tg *tableGrid) Start(ctx context.Context) error {
	if err := tg.load(ctx); err != nil {
		return fmt.Errorf("table %q: %w", tg.table.Name, err)
	}
	return nil
}

// grid builds the grid of the named table.
func (s *session) grid(name string) (*tableGrid, error) {
	table, err := s.cfg.Table(name)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("table", table.Name)
	g := datagrid.New(table.GridTitle(), table.GridColumns()...).
		SetOptions(&table.Options).
		WithLogger(logger)
	tg := &tableGrid{table: table, grid: g}

	switch {
	case table.ServerSide:
		db, err := s.database()
		if err != nil {
			return nil, err
		}
		query := datagrid.NewServerQuery(db, table.GridColumns()...).Model(table.Table)
		g.Controlled()
		tg.query = query
		tg.load = func(ctx context.Context) error {
			if err := query.Bind(ctx, g); err != nil {
				return err
			}
			return loadErr(g)
		}

	case table.Table != "":
		db, err := s.database()
		if err != nil {
			return nil, err
		}
		g.UseLoader(datagrid.NewGormLoader(db)).Endpoint(table.Table)
		tg.load = mountAndWait(g)

	default:
		loader, err := s.httpLoader(table)
		if err != nil {
			return nil, err
		}
		g.UseLoader(loader).Endpoint(table.Endpoint)
		tg.load = mountAndWait(g)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("table %q: %w", table.Name, err)
	}
	return tg, nil
}

// httpLoader builds the HTTP loader of a table from the shared settings.
func (s *session) httpLoader(table *config.TableConfig) (*datagrid.HTTPLoader, error) {
	hc := s.cfg.HTTP
	loader := datagrid.NewHTTPLoader(hc.BaseURL)
	loader.Client = &http.Client{Timeout: hc.Timeout}
	loader.Token = hc.Token
	for key, value := range hc.Headers {
		loader.Header.Set(key, value)
	}
	if err := loader.SetRowsQuery(strings.TrimSpace(table.RowsQuery)); err != nil {
		return nil, fmt.Errorf("table %q: %w", table.Name, err)
	}
	return loader, nil
}

// mountAndWait returns a load function that mounts a remote grid and waits
// for the fetch to settle. A failed fetch is reported as an error.
func mountAndWait(g *datagrid.Grid) func(context.Context) error {
	return func(ctx context.Context) error {
		select {
		case <-g.Mount(ctx):
		case <-ctx.Done():
			return ctx.Err()
		}
		return loadErr(g)
	}
}

// loadErr reports the error of the last settled load.
func loadErr(g *datagrid.Grid) error {
	if state := g.LoadState(); state.Err != "" {
		return fmt.Errorf("load rows: %s", state.Err)
	}
	return nil
}
