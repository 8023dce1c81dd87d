package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	datagrid "github.com/ZihxS/golang-datagrid"
	"github.com/ZihxS/golang-datagrid/internal/config"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"canceled", fmt.Errorf("load: %w", context.Canceled), ExitCanceled},
		{"table_not_found", fmt.Errorf("%q: %w", "x", config.ErrTableNotFound), ExitNotFound},
		{"user", userErrorf("--table is required"), ExitUser},
		{"unknown_column", fmt.Errorf("%q: %w", "x", datagrid.ErrUnknownColumn), ExitUser},
		{"invalid_page_size", datagrid.ErrInvalidPageSize, ExitUser},
		{"export_disabled", fmt.Errorf("csv: %w", datagrid.ErrExportDisabled), ExitUser},
		{"other", errors.New("boom"), ExitSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
