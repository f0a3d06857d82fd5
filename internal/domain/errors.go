package domain

import (
	"errors"
	"fmt"

	m "skippy.dev/pkg/skippy/internal/model"
)

// ErrPathNotChanged is returned when looking up a path the diff never touched.
var ErrPathNotChanged = errors.New("path not changed in diff")

// ErrMissingArtifact is returned when a required input file does not exist.
var ErrMissingArtifact = errors.New("missing artifact")

// DiffHandlerError reports a malformed file section in a unified diff.
type DiffHandlerError struct {
	Path   m.Path
	Line   int
	Reason string
}

func (e *DiffHandlerError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid diff at line %d: %s", e.Line, e.Reason)
	}

	return fmt.Sprintf("invalid diff for %s at line %d: %s", e.Path, e.Line, e.Reason)
}

// CoverageLoadError reports a coverage record that could not be opened or read.
type CoverageLoadError struct {
	Source m.Path
	Err    error
}

func (e *CoverageLoadError) Error() string {
	return fmt.Sprintf("load coverage %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *CoverageLoadError) Unwrap() error {
	return e.Err
}

// FilterCandidatesError reports a path filter invoked with an ambiguous
// configuration.
type FilterCandidatesError struct {
	Roots []m.Path
}

func (e *FilterCandidatesError) Error() string {
	return fmt.Sprintf("cannot strip prefix with %d roots %v: relative paths would be ambiguous", len(e.Roots), e.Roots)
}
