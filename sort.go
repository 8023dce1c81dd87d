package datagrid

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// SortDirection specifies the direction of sorting.
type SortDirection int

const (
	// SortNone indicates no sorting.
	SortNone SortDirection = iota
	// SortAscending indicates ascending sort order.
	SortAscending
	// SortDescending indicates descending sort order.
	SortDescending
)

// String returns the request form of a SortDirection.
func (d SortDirection) String() string {
	switch d {
	case SortNone:
		return orderNone
	case SortAscending:
		return orderAscending
	case SortDescending:
		return orderDescending
	default:
		return fmt.Sprintf("unknown(%d)", d)
	}
}

// ParseSortDirection parses "asc", "desc" or "none" (or empty), ignoring case.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case orderAscending:
		return SortAscending, nil
	case orderDescending:
		return SortDescending, nil
	case orderNone, "":
		return SortNone, nil
	}
	return SortNone, fmt.Errorf("invalid sort direction %q", s)
}

// SortState represents the current sorting configuration. The zero value is
// unsorted.
type SortState struct {
	Key       string
	Direction SortDirection
}

// IsSorted returns true if this state represents an active sort.
func (s SortState) IsSorted() bool {
	return s.Key != "" && s.Direction != SortNone
}

// ToggleSort returns the sort state after the header of col is activated.
//
// Activating the sorted column cycles none, ascending, descending and back to
// none. Activating another column starts it ascending. Non-sortable columns
// leave the state unchanged.
func ToggleSort(state SortState, col Column) SortState {
	if !col.Sortable {
		return state
	}
	if state.Key != col.Key || !state.IsSorted() {
		return SortState{Key: col.Key, Direction: SortAscending}
	}
	if state.Direction == SortAscending {
		return SortState{Key: col.Key, Direction: SortDescending}
	}
	return SortState{}
}

// SortRows returns a new slice with rows ordered by the state's key. The sort
// is stable, so rows with equal keys keep their input order in both
// directions. An unsorted state returns rows unchanged.
func SortRows(rows []Row, state SortState) []Row {
	if !state.IsSorted() {
		return rows
	}

	sorted := slices.Clone(rows)
	key := state.Key
	desc := state.Direction == SortDescending
	slices.SortStableFunc(sorted, func(a, b Row) int {
		c := CompareValues(a[key], b[key])
		if desc {
			return -c
		}
		return c
	})
	return sorted
}

// CompareValues is the three-way comparison used by the sort stage.
//
// Numbers compare numerically whatever their Go kind, strings and byte slices
// lexically, booleans false before true and times chronologically. Pairs of
// values of different or unsupported types compare as equal, so mixed-type
// columns keep their input order.
func CompareValues(a, b any) int {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf)
		}
		return 0
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case []byte:
		if bv, ok := b.([]byte); ok {
			return bytes.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return 0
}

// toFloat widens any Go numeric value to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
