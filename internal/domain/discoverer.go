package domain

import (
	"context"
	"log/slog"
	"strings"

	"skippy.dev/pkg/skippy/internal/adapter"
	m "skippy.dev/pkg/skippy/internal/model"
)

const (
	testFunctionPrefix = "test_"
	testClassPrefix    = "Test"
	initializerName    = "__init__"
)

// TestDiscoverer statically enumerates the tests a changed test file defines.
type TestDiscoverer interface {
	// Discover returns the tests defined in the file at path. ok is false
	// when path is not a test file, cannot be read or parsed, or defines no
	// tests.
	Discover(ctx context.Context, path m.Path) (candidate m.TestCandidate, ok bool)
}

type discoverer struct {
	adapter.SourceFSAdapter
	adapter.PythonFileAdapter
	matcher TestFileMatcher
	root    m.Path
}

// NewTestDiscoverer creates a TestDiscoverer. Paths handed to Discover are
// resolved against root for reading, while the returned candidate keeps the
// path exactly as given.
func NewTestDiscoverer(fsAdapter adapter.SourceFSAdapter, pyAdapter adapter.PythonFileAdapter, matcher TestFileMatcher, root m.Path) TestDiscoverer {
	return &discoverer{
		SourceFSAdapter:   fsAdapter,
		PythonFileAdapter: pyAdapter,
		matcher:           matcher,
		root:              root,
	}
}

func (d *discoverer) Discover(ctx context.Context, path m.Path) (m.TestCandidate, bool) {
	if !d.matcher.IsTestFile(path) {
		slog.Debug("Skipping discovery: not a test file", "path", path)
		return m.TestCandidate{}, false
	}

	fullPath := d.resolve(ctx, path)

	info, err := d.FileInfo(ctx, fullPath)
	if err != nil {
		slog.Debug("Skipping discovery: file does not exist", "path", fullPath, "error", err)
		return m.TestCandidate{}, false
	}

	if !info.Mode().IsRegular() {
		slog.Debug("Skipping discovery: not a regular file", "path", fullPath)
		return m.TestCandidate{}, false
	}

	src, err := d.ReadFile(ctx, fullPath)
	if err != nil {
		slog.Warn("Could not read test file", "path", fullPath, "error", err)
		return m.TestCandidate{}, false
	}

	return d.discoverSource(ctx, path, src)
}

func (d *discoverer) discoverSource(ctx context.Context, path m.Path, src []byte) (m.TestCandidate, bool) {
	defs, err := d.ModuleDefinitions(ctx, src)
	if err != nil {
		slog.Warn("Could not discover tests", "path", path, "error", err)
		return m.TestCandidate{}, false
	}

	candidate := m.NewTestCandidate(path, TestNames(defs)...)
	if candidate.Len() == 0 {
		slog.Debug("No tests found matching convention", "path", path)
		return m.TestCandidate{}, false
	}

	slog.Debug("Discovered tests", "path", path, "count", candidate.Len())

	return candidate, true
}

func (d *discoverer) resolve(ctx context.Context, path m.Path) m.Path {
	if d.root == "" || path.IsAbs() {
		return path
	}

	return d.JoinPath(ctx, string(d.root), string(path))
}

// TestNames applies pytest's default collection rules to module-level
// definitions: test_* functions, and test_* methods of Test* classes that do
// not define __init__. Nothing nested deeper is considered.
func TestNames(defs []m.Definition) []string {
	var names []string

	for _, def := range defs {
		switch def.Kind {
		case m.DefinitionFunction:
			if strings.HasPrefix(def.Name, testFunctionPrefix) {
				names = append(names, def.Name)
			}

		case m.DefinitionClass:
			if !strings.HasPrefix(def.Name, testClassPrefix) || hasInitializer(def) {
				continue
			}

			for _, member := range def.Members {
				if member.Kind == m.DefinitionFunction && strings.HasPrefix(member.Name, testFunctionPrefix) {
					names = append(names, def.Name+m.TestIDSeparator+member.Name)
				}
			}
		}
	}

	return names
}

func hasInitializer(class m.Definition) bool {
	for _, member := range class.Members {
		if member.Kind == m.DefinitionFunction && member.Name == initializerName {
			return true
		}
	}

	return false
}
