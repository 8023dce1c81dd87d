// Package cmd implements the gridctl command tree.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ZihxS/golang-datagrid/internal/config"
)

// App owns CLI wiring and execution configuration.
type App struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Version string

	// OpenDB opens the database of tables that name a table. It defaults
	// to the mysql driver.
	OpenDB func(config.DatabaseConfig) (*gorm.DB, error)
}

// NewApp constructs an App with default settings.
func NewApp() *App {
	return &App{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Version: "dev",
		OpenDB:  openDB,
	}
}

// Execute runs the CLI with the provided args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.Stderr, "Error:", err)
		return err
	}
	return nil
}

// RootCommand exposes the root Cobra command for embedding/tests.
func (a *App) RootCommand() *cobra.Command {
	return newRootCmd(a)
}
