package datagrid

import (
	"errors"
	"fmt"
)

// Common errors returned by the datagrid package.
var (
	// ErrNoColumns is returned when a grid has no column descriptors.
	ErrNoColumns = errors.New("no columns defined")

	// ErrEmptyColumnKey is returned when a column descriptor has no key.
	ErrEmptyColumnKey = errors.New("column key is empty")

	// ErrUnknownColumn is returned when a key does not name a grid column.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidPageSize is returned for page sizes that are neither
	// positive nor PageSizeAll.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrInvalidRowSpacing is returned for an unknown row spacing value.
	ErrInvalidRowSpacing = errors.New("invalid row spacing")

	// ErrNoLoader is returned when a remote grid has nothing to fetch with.
	ErrNoLoader = errors.New("no loader configured")

	// ErrNotControlled is returned when controlled-mode input is pushed to
	// a grid that fetches its own rows.
	ErrNotControlled = errors.New("grid is not in controlled mode")

	// ErrExportDisabled is returned when an export kind is turned off in
	// the grid configuration.
	ErrExportDisabled = errors.New("export disabled")

	// ErrUnknownExport is returned for an unrecognised export kind.
	ErrUnknownExport = errors.New("unknown export kind")

	// ErrDestinationUnavailable is returned by a Destination that cannot
	// be created, for example a blocked popup. The grid swallows it.
	ErrDestinationUnavailable = errors.New("export destination unavailable")
)

// FetchError describes a failed remote fetch.
type FetchError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
