package cmd

import (
	"context"
	"errors"
	"fmt"

	datagrid "github.com/ZihxS/golang-datagrid"
	"github.com/ZihxS/golang-datagrid/internal/config"
)

const (
	ExitOK       = 0
	ExitSystem   = 1
	ExitUser     = 2
	ExitNotFound = 4
	ExitCanceled = 130
)

// userError marks an error caused by the command line.
type userError struct {
	err error
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return &userError{err: fmt.Errorf(format, args...)}
}

// ExitCode maps a command error to a stable process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitCanceled
	}
	if errors.Is(err, config.ErrTableNotFound) {
		return ExitNotFound
	}

	var ue *userError
	if errors.As(err, &ue) {
		return ExitUser
	}
	switch {
	case errors.Is(err, datagrid.ErrUnknownColumn),
		errors.Is(err, datagrid.ErrInvalidPageSize),
		errors.Is(err, datagrid.ErrUnknownExport),
		errors.Is(err, datagrid.ErrExportDisabled):
		return ExitUser
	}
	return ExitSystem
}
