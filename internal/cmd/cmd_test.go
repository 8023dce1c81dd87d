package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/ZihxS/golang-datagrid/internal/config"
)

const peopleJSON = `{"data":[
	{"name":"Ana","city":"Lisbon"},
	{"name":"Bob","city":"Oslo"},
	{"name":"Carla","city":"Porto"}
]}`

func newPeopleServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/people":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(peopleJSON))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func remoteConfig(t *testing.T, baseURL string) string {
	return writeConfig(t, fmt.Sprintf(`
http:
  base_url: %q
tables:
  - name: people
    title: People
    endpoint: /people
    columns:
      - key: name
        label: Name
        sortable: true
        filterable: true
      - key: city
        label: City
        filterable: true
  - name: broken
    endpoint: /broken
    columns:
      - key: name
`, baseURL))
}

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp() *testApp {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &testApp{
		App:    &App{Stdout: stdout, Stderr: stderr, Version: "test", OpenDB: openDB},
		stdout: stdout,
		stderr: stderr,
	}
}

func TestViewCommand(t *testing.T) {
	srv := newPeopleServer(t)
	path := remoteConfig(t, srv.URL)

	app := newTestApp()
	err := app.Execute(context.Background(), []string{"view", "-c", path, "-t", "people", "--sort", "name:desc", "--length", "2"})
	require.NoError(t, err)

	out := app.stdout.String()
	assert.Contains(t, out, "Name ▼")
	assert.Contains(t, out, "Carla")
	assert.Contains(t, out, "Bob")
	assert.NotContains(t, out, "Ana")
	assert.Less(t, strings.Index(out, "Carla"), strings.Index(out, "Bob"))
	assert.Contains(t, out, "Showing 1 to 2 of 3 records | page 1 of 2")
}

func TestViewCommand_SearchAndPage(t *testing.T) {
	srv := newPeopleServer(t)
	path := remoteConfig(t, srv.URL)

	app := newTestApp()
	err := app.Execute(context.Background(), []string{"view", "-c", path, "-t", "people", "-s", "o", "-l", "1", "-p", "2"})
	require.NoError(t, err)

	out := app.stdout.String()
	// "o" matches Lisbon, Bob/Oslo and Porto; page 2 of 1-row pages is Bob.
	assert.Contains(t, out, "Bob")
	assert.NotContains(t, out, "Carla")
	assert.Contains(t, out, "Showing 2 to 2 of 3 records")
}

func TestViewCommand_Errors(t *testing.T) {
	srv := newPeopleServer(t)
	path := remoteConfig(t, srv.URL)

	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains string
	}{
		{"missing_table_flag", []string{"view", "-c", path}, ExitUser, "--table is required"},
		{"unknown_table", []string{"view", "-c", path, "-t", "nope"}, ExitNotFound, "table not found"},
		{"bad_sort", []string{"view", "-c", path, "-t", "people", "--sort", "name:sideways"}, ExitUser, "invalid --sort"},
		{"non_sortable_column", []string{"view", "-c", path, "-t", "people", "--sort", "city"}, ExitUser, "invalid --sort"},
		{"bad_length", []string{"view", "-c", path, "-t", "people", "-l", "-5"}, ExitUser, "invalid --length"},
		{"unknown_flag", []string{"view", "--bogus"}, ExitUser, "unknown flag"},
		{"fetch_failure", []string{"view", "-c", path, "-t", "broken"}, ExitSystem, "load rows"},
		{"missing_config", []string{"view", "-c", filepath.Join(t.TempDir(), "none.yaml"), "-t", "people"}, ExitSystem, "read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			err := app.Execute(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, tt.exitCode, ExitCode(err))
			assert.Contains(t, app.stderr.String(), "Error: ")
		})
	}
}

func TestExportCommand(t *testing.T) {
	srv := newPeopleServer(t)
	path := remoteConfig(t, srv.URL)
	outDir := t.TempDir()

	app := newTestApp()
	err := app.Execute(context.Background(), []string{"export", "-c", path, "-t", "people", "--sort", "name:desc", "-o", outDir})
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(outDir, "people_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, matches[0]+"\n", app.stdout.String())

	body, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	expected := strings.Join([]string{
		`"Name","City"`,
		`"Carla","Porto"`,
		`"Bob","Oslo"`,
		`"Ana","Lisbon"`,
		"",
	}, "\n")
	assert.Equal(t, expected, string(body))
}

func TestExportCommand_Formats(t *testing.T) {
	srv := newPeopleServer(t)
	path := remoteConfig(t, srv.URL)

	tests := []struct {
		format  string
		pattern string
	}{
		{"print", "people_*.html"},
		{"pdf", "people_*.html"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			outDir := t.TempDir()
			app := newTestApp()
			err := app.Execute(context.Background(), []string{"export", "-c", path, "-t", "people", "-f", tt.format, "-o", outDir})
			require.NoError(t, err)

			matches, err := filepath.Glob(filepath.Join(outDir, tt.pattern))
			require.NoError(t, err)
			require.Len(t, matches, 1)
			body, err := os.ReadFile(matches[0])
			require.NoError(t, err)
			assert.Contains(t, string(body), "<td>Carla</td>")
		})
	}

	t.Run("unknown_format", func(t *testing.T) {
		app := newTestApp()
		err := app.Execute(context.Background(), []string{"export", "-c", path, "-t", "people", "-f", "xlsx"})
		require.Error(t, err)
		assert.Equal(t, ExitUser, ExitCode(err))
	})

	t.Run("disabled_format", func(t *testing.T) {
		app := newTestApp()
		err := app.Execute(context.Background(), []string{"export", "-c", path, "-t", "people", "-f", "parquet", "-o", t.TempDir()})
		require.Error(t, err)
		assert.Equal(t, ExitUser, ExitCode(err))
	})
}

func TestTablesCommand(t *testing.T) {
	path := remoteConfig(t, "https://api.example.com")

	app := newTestApp()
	require.NoError(t, app.Execute(context.Background(), []string{"tables", "-c", path}))

	lines := strings.Split(strings.TrimSpace(app.stdout.String()), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^NAME\s+TITLE\s+SOURCE\s+COLUMNS$`, lines[0])
	assert.Regexp(t, `^people\s+People\s+/people\s+name,city$`, lines[1])
	assert.Regexp(t, `^broken\s+broken\s+/broken\s+name$`, lines[2])
}

func TestTablesCommand_Empty(t *testing.T) {
	path := writeConfig(t, "tables: []\n")

	app := newTestApp()
	require.NoError(t, app.Execute(context.Background(), []string{"tables", "-c", path}))
	assert.Equal(t, "No tables configured\n", app.stdout.String())
}

func TestTableSource(t *testing.T) {
	assert.Equal(t, "db:users (server)", tableSource(config.TableConfig{Table: "users", ServerSide: true}))
	assert.Equal(t, "db:users", tableSource(config.TableConfig{Table: "users"}))
	assert.Equal(t, "/people", tableSource(config.TableConfig{Endpoint: "/people"}))
}

func newMockOpenDB(t *testing.T) (func(config.DatabaseConfig) (*gorm.DB, error), sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	return func(config.DatabaseConfig) (*gorm.DB, error) { return db, nil }, mock
}

const usersConfig = `
database:
  dsn: "user:pass@tcp(localhost:3306)/app"
tables:
  - name: users
    table: users
    server_side: true
    columns:
      - key: name
        sortable: true
        filterable: true
      - key: email
        filterable: true
`

func TestViewCommand_ServerSide(t *testing.T) {
	openDB, mock := newMockOpenDB(t)
	path := writeConfig(t, usersConfig)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(40)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `users` WHERE (`name` LIKE ? OR `email` LIKE ?)")).
		WithArgs("%john%", "%john%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE (`name` LIKE ? OR `email` LIKE ?) ORDER BY `name` DESC LIMIT ?")).
		WithArgs("%john%", "%john%", 10).
		WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).
			AddRow([]byte("Johnny"), []byte("johnny@example.com")).
			AddRow([]byte("John Doe"), []byte("john@example.com")))

	app := newTestApp()
	app.OpenDB = openDB
	err := app.Execute(context.Background(), []string{"view", "-c", path, "-t", "users", "-s", "john", "--sort", "name:desc"})
	require.NoError(t, err)

	out := app.stdout.String()
	assert.Contains(t, out, "johnny@example.com")
	assert.Less(t, strings.Index(out, "Johnny"), strings.Index(out, "John Doe"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewCommand_ServerSideError(t *testing.T) {
	openDB, mock := newMockOpenDB(t)
	path := writeConfig(t, usersConfig)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `users`")).
		WillReturnError(errors.New("connection refused"))

	app := newTestApp()
	app.OpenDB = openDB
	err := app.Execute(context.Background(), []string{"view", "-c", path, "-t", "users"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, ExitSystem, ExitCode(err))
}

func TestExportCommand_ServerSideExportsEveryRow(t *testing.T) {
	openDB, mock := newMockOpenDB(t)
	path := writeConfig(t, usersConfig)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(`^` + regexp.QuoteMeta("SELECT * FROM `users`") + `$`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).
			AddRow([]byte("Ana"), []byte("ana@example.com")).
			AddRow([]byte("Bob"), nil))

	outDir := t.TempDir()
	app := newTestApp()
	app.OpenDB = openDB
	require.NoError(t, app.Execute(context.Background(), []string{"export", "-c", path, "-t", "users", "-o", outDir}))

	matches, err := filepath.Glob(filepath.Join(outDir, "users_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	body, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "\"name\",\"email\"\n\"Ana\",\"ana@example.com\"\n\"Bob\",\"\"\n", string(body))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDB_UnsupportedDriver(t *testing.T) {
	_, err := openDB(config.DatabaseConfig{Driver: "postgres", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "postgres"`)
}
