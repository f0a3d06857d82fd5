package domain

import (
	"context"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	m "skippy.dev/pkg/skippy/internal/model"
)

// DefaultExtensions are the source extensions the selector considers.
var DefaultExtensions = []string{".py"}

// SelectOptions configures a Selector.
type SelectOptions struct {
	// Threads bounds concurrent discovery. Zero or less means GOMAXPROCS.
	Threads int
	// Extensions lists tracked file extensions. Empty means DefaultExtensions.
	Extensions []string
	// TestFiles tells test files apart from sources. Nil means the default
	// python_files pattern.
	TestFiles TestFileMatcher
}

// Selector turns a diff and a coverage index into a test selection.
type Selector interface {
	// Select returns the tests to run for diff, plus what happened to each
	// changed file in diff order. An empty selection is not an error.
	Select(ctx context.Context, diff *DiffSet, index *CoverageIndex) (*m.Selection, []m.ChangeOutcome, error)
}

type selector struct {
	TestDiscoverer
	testFiles  TestFileMatcher
	extensions map[string]struct{}
	threads    int
}

// NewSelector creates a Selector that uses discoverer for changed test files.
func NewSelector(discoverer TestDiscoverer, opts SelectOptions) Selector {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	tracked := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		tracked[strings.ToLower(ext)] = struct{}{}
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	testFiles := opts.TestFiles
	if testFiles == nil {
		testFiles = NewPatternMatcher()
	}

	return &selector{
		TestDiscoverer: discoverer,
		testFiles:      testFiles,
		extensions:     tracked,
		threads:        threads,
	}
}

type discovery struct {
	candidate m.TestCandidate
	found     bool
}

func (s *selector) Select(ctx context.Context, diff *DiffSet, index *CoverageIndex) (*m.Selection, []m.ChangeOutcome, error) {
	changed := diff.ChangedFiles()
	discovered := make([]discovery, len(changed))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.threads)

	for i, path := range changed {
		if !s.tracks(path) {
			continue
		}

		i, path := i, path
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			candidate, found := s.Discover(groupCtx, path)
			discovered[i] = discovery{candidate: candidate, found: found}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	selection := m.NewSelection()
	outcomes := make([]m.ChangeOutcome, 0, len(changed))

	for i, path := range changed {
		outcome := m.ChangeOutcome{Path: path, Stat: diff.Stat(path)}

		if !s.tracks(path) {
			slog.Debug("Ignoring changed file with untracked extension", "path", path)

			outcome.Reason = m.ReasonIgnored
			outcomes = append(outcomes, outcome)

			continue
		}

		contributed := m.NewSelection()

		covered := index.GetTests(path)
		contributed.Add(covered...)

		if discovered[i].found {
			contributed.Add(discovered[i].candidate)
		}

		switch {
		case len(covered) > 0 && discovered[i].found:
			outcome.Reason = m.ReasonCoveredTestFile
		case len(covered) > 0:
			outcome.Reason = m.ReasonCovered
		case discovered[i].found:
			outcome.Reason = m.ReasonTestFile
		case s.testFiles.IsTestFile(path):
			outcome.Reason = m.ReasonNoTests
			slog.Debug("Changed test file defines no tests", "path", path)
		default:
			outcome.Reason = m.ReasonUnmapped
			slog.Warn("Changed file has no coverage and is not a test file, no tests selected for it", "path", path)
		}

		outcome.Tests = len(contributed.Flatten())
		outcomes = append(outcomes, outcome)

		selection.Add(contributed.Candidates()...)
	}

	slog.Info("Selection complete", "changed", len(changed), "test_files", selection.Len())

	return selection, outcomes, nil
}

func (s *selector) tracks(path m.Path) bool {
	_, ok := s.extensions[strings.ToLower(path.Ext())]
	return ok
}
