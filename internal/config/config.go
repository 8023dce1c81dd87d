// Package config loads the gridctl configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	datagrid "github.com/ZihxS/golang-datagrid"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "grid.yaml"

// ErrTableNotFound is returned when a table name is not configured.
var ErrTableNotFound = errors.New("table not found")

// Config represents the gridctl configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Tables   []TableConfig  `yaml:"tables"`

	// ConfigPath is the path the config was read from (not serialized)
	ConfigPath string `yaml:"-"`
}

// ServerConfig holds the settings of "gridctl serve".
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds the database used by tables that name a table
// instead of an endpoint.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// HTTPConfig holds the settings shared by tables fetched over HTTP.
type HTTPConfig struct {
	BaseURL string            `yaml:"base_url"`
	Token   string            `yaml:"token,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout time.Duration     `yaml:"timeout"`
}

// TableConfig describes one grid. Exactly one of Endpoint and Table is set.
type TableConfig struct {
	Name       string           `yaml:"name"`
	Title      string           `yaml:"title"`
	Endpoint   string           `yaml:"endpoint,omitempty"`
	Table      string           `yaml:"table,omitempty"`
	ServerSide bool             `yaml:"server_side,omitempty"`
	RowsQuery  string           `yaml:"rows_query,omitempty"`
	Columns    []ColumnConfig   `yaml:"columns"`
	Options    datagrid.Options `yaml:"options,omitempty"`
}

// ColumnConfig describes one column of a table.
type ColumnConfig struct {
	Key        string `yaml:"key"`
	Label      string `yaml:"label,omitempty"`
	Sortable   bool   `yaml:"sortable,omitempty"`
	Filterable bool   `yaml:"filterable,omitempty"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "mysql",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Tables: []TableConfig{},
	}
}

// Load reads the configuration at path over the defaults and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.ConfigPath = path
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every table.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Tables))
	for i := range c.Tables {
		t := &c.Tables[i]
		if t.Name == "" {
			return fmt.Errorf("table %d: name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("table %q: defined twice", t.Name)
		}
		seen[t.Name] = true

		if (t.Endpoint == "") == (t.Table == "") {
			return fmt.Errorf("table %q: exactly one of endpoint and table must be set", t.Name)
		}
		if t.ServerSide && t.Table == "" {
			return fmt.Errorf("table %q: server_side needs a database table", t.Name)
		}
		if t.Table != "" && c.Database.DSN == "" {
			return fmt.Errorf("table %q: database.dsn is required", t.Name)
		}
		if len(t.Columns) == 0 {
			return fmt.Errorf("table %q: %w", t.Name, datagrid.ErrNoColumns)
		}
		if err := datagrid.ResolveConfig(&t.Options).Validate(); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
	}
	return nil
}

// Table returns the table called name.
func (c *Config) Table(name string) (*TableConfig, error) {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i], nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrTableNotFound)
}

// GridTitle returns the title, falling back to the name.
func (t TableConfig) GridTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

// GridColumns converts the column configs into grid columns.
func (t TableConfig) GridColumns() []datagrid.Column {
	columns := make([]datagrid.Column, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = datagrid.Column{
			Key:        c.Key,
			Label:      c.Label,
			Sortable:   c.Sortable,
			Filterable: c.Filterable,
		}
	}
	return columns
}
