// Package adapter contains infrastructure adapters for the skippy CLI.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	m "skippy.dev/pkg/skippy/internal/model"
)

// ErrNotFound is returned by FindUp when no candidate exists in any parent.
var ErrNotFound = errors.New("not found")

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when reading diffs and test files. It hides direct `os` access so
// the selection logic can be tested without touching the disk.
type SourceFSAdapter interface {
	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// FileInfo returns metadata for a path so the domain can check existence or
	// distinguish between files and directories when necessary.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)

	// FindUp searches startDir and then each parent for the first of names
	// that exists, in the order given, and returns its path.
	FindUp(ctx context.Context, startDir m.Path, names ...string) (m.Path, error)

	// Getwd returns the current working directory.
	Getwd(ctx context.Context) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(ctx context.Context, elem ...string) m.Path
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 - reading user-provided diff, coverage and test files is the point
	return os.ReadFile(string(path))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.Stat(string(path))
}

// FindUp searches startDir and its parents for the first existing name.
func (a *LocalSourceFSAdapter) FindUp(ctx context.Context, startDir m.Path, names ...string) (m.Path, error) {
	dir, err := filepath.Abs(string(startDir))
	if err != nil {
		return "", err
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return m.Path(candidate), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%v in any parent directory of %s: %w", names, startDir, ErrNotFound)
		}

		dir = parent
	}
}

// Getwd returns the process working directory.
func (a *LocalSourceFSAdapter) Getwd(_ context.Context) (m.Path, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	return m.Path(wd), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(_ context.Context, elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
