package domain

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"skippy.dev/pkg/skippy/internal/adapter"
	m "skippy.dev/pkg/skippy/internal/model"
)

// DefaultTestFilePattern is used when no python_files option is configured.
const DefaultTestFilePattern = "test_*.py"

const pythonFilesOption = "python_files"

// TestFileMatcher decides whether a path names a test file.
type TestFileMatcher interface {
	IsTestFile(path m.Path) bool
}

type patternMatcher struct {
	patterns []string
}

// NewPatternMatcher matches file names against the given glob patterns, or
// DefaultTestFilePattern when none are given.
func NewPatternMatcher(patterns ...string) TestFileMatcher {
	if len(patterns) == 0 {
		patterns = []string{DefaultTestFilePattern}
	}

	return &patternMatcher{patterns: patterns}
}

// NewConfiguredMatcher reads python_files from the pytest configuration. A
// configuration that cannot be read falls back to the default pattern.
func NewConfiguredMatcher(ctx context.Context, cfg adapter.PytestConfigAdapter) TestFileMatcher {
	value, ok, err := cfg.Value(ctx, pythonFilesOption)
	if err != nil {
		slog.Warn("Could not read pytest configuration, using default test file pattern", "error", err)
		return NewPatternMatcher()
	}

	if !ok {
		return NewPatternMatcher()
	}

	patterns := strings.Fields(value)
	slog.Debug("Using configured test file patterns", "patterns", patterns)

	return NewPatternMatcher(patterns...)
}

func (p *patternMatcher) IsTestFile(path m.Path) bool {
	name := path.Base()

	for _, pattern := range p.patterns {
		target := name
		if strings.Contains(pattern, "/") {
			target = string(path.Clean())
		}

		matched, err := doublestar.Match(pattern, target)
		if err != nil {
			slog.Warn("Invalid test file pattern", "pattern", pattern, "error", err)
			continue
		}

		if matched {
			return true
		}
	}

	return false
}
