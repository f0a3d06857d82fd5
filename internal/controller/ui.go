// Package controller provides output adapters for displaying test selections.
package controller

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	m "skippy.dev/pkg/skippy/internal/model"
)

// UI defines how selection results reach the user.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	// DisplaySelection prints the selected test IDs for a test runner to
	// consume.
	DisplaySelection(ctx context.Context, ids []string) error
	// DisplayChanges summarises what the selection did with each changed file.
	DisplayChanges(ctx context.Context, outcomes []m.ChangeOutcome) error
	// DisplayReport renders a saved selection report.
	DisplayReport(ctx context.Context, report m.Report) error
}

// NewUI returns a TUI when the output is a terminal and a SimpleUI otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
