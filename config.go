package datagrid

import (
	"fmt"
	"slices"
)

// RowSpacing selects the vertical density of rendered rows.
type RowSpacing string

// Supported row spacings.
const (
	RowSpacingCompact RowSpacing = "compact"
	RowSpacingNormal  RowSpacing = "normal"
	RowSpacingCozy    RowSpacing = "cozy"
)

// valid reports whether the spacing is one of the known values.
func (s RowSpacing) valid() bool {
	switch s {
	case RowSpacingCompact, RowSpacingNormal, RowSpacingCozy:
		return true
	}
	return false
}

// ExportConfig holds the resolved export toggles of a Grid.
type ExportConfig struct {
	CSV     bool
	PDF     bool
	Print   bool
	Parquet bool
}

// Enabled reports whether the given export kind is turned on.
func (e ExportConfig) Enabled(kind ExportKind) bool {
	switch kind {
	case ExportCSV:
		return e.CSV
	case ExportPDF:
		return e.PDF
	case ExportPrint:
		return e.Print
	case ExportParquet:
		return e.Parquet
	}
	return false
}

// Kinds returns the enabled export kinds in display order.
func (e ExportConfig) Kinds() []ExportKind {
	var kinds []ExportKind
	for _, kind := range exportKinds {
		if e.Enabled(kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Config holds the resolved configuration of a Grid.
//
// Fields:
//   - Search: Enables or disables the free-text search stage.
//   - Export: Which export kinds are offered.
//   - LengthMenu: Page size options in display order. PageSizeAll means all rows.
//   - Pagination: Enables or disables pagination.
//   - Summary: Enables or disables the "Showing x to y of n records" line.
//   - RowSpacing: Row density used by the HTML renderer.
//   - PageSize: Initial page size.
type Config struct {
	Search     bool
	Export     ExportConfig
	LengthMenu []int
	Pagination bool
	Summary    bool
	RowSpacing RowSpacing
	PageSize   int
}

// ExportOptions is the partial form of ExportConfig. Nil fields keep the
// default.
type ExportOptions struct {
	CSV     *bool `yaml:"csv,omitempty" json:"csv,omitempty"`
	PDF     *bool `yaml:"pdf,omitempty" json:"pdf,omitempty"`
	Print   *bool `yaml:"print,omitempty" json:"print,omitempty"`
	Parquet *bool `yaml:"parquet,omitempty" json:"parquet,omitempty"`
}

// Options is the caller-supplied, partial configuration of a Grid. Every
// field is optional; ResolveConfig merges it over DefaultConfig field by
// field, nested export toggles included.
type Options struct {
	Search     *bool          `yaml:"search,omitempty" json:"search,omitempty"`
	Export     *ExportOptions `yaml:"export,omitempty" json:"export,omitempty"`
	LengthMenu []int          `yaml:"length_menu,omitempty" json:"lengthMenu,omitempty"`
	Pagination *bool          `yaml:"pagination,omitempty" json:"pagination,omitempty"`
	Summary    *bool          `yaml:"summary,omitempty" json:"summary,omitempty"`
	RowSpacing *RowSpacing    `yaml:"row_spacing,omitempty" json:"rowSpacing,omitempty"`
	PageSize   *int           `yaml:"page_size,omitempty" json:"pageSize,omitempty"`
}

// Bool returns a pointer to v, for filling Options literals.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v, for filling Options literals.
func Int(v int) *int { return &v }

// Spacing returns a pointer to v, for filling Options literals.
func Spacing(v RowSpacing) *RowSpacing { return &v }

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Search: true,
		Export: ExportConfig{
			CSV:   true,
			PDF:   true,
			Print: true,
		},
		LengthMenu: []int{10, 50, 100, PageSizeAll},
		Pagination: true,
		Summary:    true,
		RowSpacing: RowSpacingNormal,
		PageSize:   10,
	}
}

// ResolveConfig merges opts over DefaultConfig. A nil opts yields the
// defaults. The options value is never modified.
func ResolveConfig(opts *Options) Config {
	cfg := DefaultConfig()
	if opts == nil {
		return cfg
	}

	if opts.Search != nil {
		cfg.Search = *opts.Search
	}
	if e := opts.Export; e != nil {
		if e.CSV != nil {
			cfg.Export.CSV = *e.CSV
		}
		if e.PDF != nil {
			cfg.Export.PDF = *e.PDF
		}
		if e.Print != nil {
			cfg.Export.Print = *e.Print
		}
		if e.Parquet != nil {
			cfg.Export.Parquet = *e.Parquet
		}
	}
	if len(opts.LengthMenu) > 0 {
		cfg.LengthMenu = slices.Clone(opts.LengthMenu)
		cfg.PageSize = cfg.LengthMenu[0]
	}
	if opts.Pagination != nil {
		cfg.Pagination = *opts.Pagination
	}
	if opts.Summary != nil {
		cfg.Summary = *opts.Summary
	}
	if opts.RowSpacing != nil {
		cfg.RowSpacing = *opts.RowSpacing
	}
	if opts.PageSize != nil {
		cfg.PageSize = *opts.PageSize
	}

	return cfg
}

// Validate checks the page sizes and the row spacing of the configuration.
func (c Config) Validate() error {
	for _, size := range c.LengthMenu {
		if !validPageSize(size) {
			return fmt.Errorf("length menu entry %d: %w", size, ErrInvalidPageSize)
		}
	}
	if !validPageSize(c.PageSize) {
		return fmt.Errorf("page size %d: %w", c.PageSize, ErrInvalidPageSize)
	}
	if !c.RowSpacing.valid() {
		return fmt.Errorf("%q: %w", c.RowSpacing, ErrInvalidRowSpacing)
	}
	return nil
}

// validPageSize reports whether size is positive or PageSizeAll.
func validPageSize(size int) bool {
	return size > 0 || size == PageSizeAll
}
