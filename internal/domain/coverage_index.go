package domain

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"skippy.dev/pkg/skippy/internal/adapter"
	m "skippy.dev/pkg/skippy/internal/model"
)

// CoverageIndex maps a source file to the tests, grouped by test file, that
// executed at least one of its lines. It is immutable once built.
type CoverageIndex struct {
	root    m.Path
	entries map[m.Path][]m.TestCandidate
}

// NewCoverageIndex reads the coverage record and groups its contexts.
//
// Recorded paths that are absolute and lie under root are stored relative to
// root, matching the repository-relative paths found in diffs. Any failure to
// read the record is returned as a *CoverageLoadError.
func NewCoverageIndex(ctx context.Context, record adapter.CoverageRecord, root m.Path) (*CoverageIndex, error) {
	if err := record.Read(ctx); err != nil {
		slog.Error("Failed to read coverage record", "source", record.Source(), "error", err)
		return nil, &CoverageLoadError{Source: record.Source(), Err: err}
	}

	files, err := record.MeasuredFiles(ctx)
	if err != nil {
		return nil, &CoverageLoadError{Source: record.Source(), Err: err}
	}

	index := &CoverageIndex{
		root:    root.Clean(),
		entries: make(map[m.Path][]m.TestCandidate, len(files)),
	}

	var tally contextTally

	for _, file := range files {
		contexts, err := record.ContextsForFile(ctx, file)
		if err != nil {
			return nil, &CoverageLoadError{Source: record.Source(), Err: err}
		}

		candidates := groupContexts(contexts, &tally)
		if len(candidates) == 0 {
			continue
		}

		key := index.Normalize(file)
		index.entries[key] = mergeCandidates(index.entries[key], candidates)
	}

	tally.warnIfUndecodable(record.Source())

	slog.Debug("Coverage index built", "source", record.Source(), "files", len(index.entries))

	return index, nil
}

// NewCoverageIndexFromMap builds an index directly from source path to raw
// contexts. It skips normalisation against a root.
func NewCoverageIndexFromMap(contexts map[m.Path][]string) *CoverageIndex {
	index := &CoverageIndex{entries: make(map[m.Path][]m.TestCandidate, len(contexts))}

	var tally contextTally

	for file, raw := range contexts {
		candidates := groupContexts(map[int][]string{0: raw}, &tally)
		if len(candidates) == 0 {
			continue
		}

		index.entries[file.Clean()] = candidates
	}

	tally.warnIfUndecodable("")

	return index
}

// GetTests returns the candidates covering path, or nil if none are known.
func (ci *CoverageIndex) GetTests(path m.Path) []m.TestCandidate {
	candidates, ok := ci.entries[ci.Normalize(path)]
	if !ok {
		return nil
	}

	out := make([]m.TestCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Clone())
	}

	return out
}

// Contains reports whether path has recorded coverage.
func (ci *CoverageIndex) Contains(path m.Path) bool {
	_, ok := ci.entries[ci.Normalize(path)]
	return ok
}

// Len returns the number of source files in the index.
func (ci *CoverageIndex) Len() int {
	return len(ci.entries)
}

// Normalize converts path to the key form used by the index.
func (ci *CoverageIndex) Normalize(path m.Path) m.Path {
	p := path.Clean()
	if ci.root == "" || !p.IsAbs() {
		return p
	}

	rel, ok := relativeUnder(ci.root, p)
	if !ok {
		return p
	}

	return rel
}

// relativeUnder returns path relative to root when path lies inside root.
func relativeUnder(root, path m.Path) (m.Path, bool) {
	rel, err := filepath.Rel(string(root), string(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return m.Path(rel).Clean(), true
}

// contextTally counts the non-empty contexts seen while building an index
// and how many of them named a test.
type contextTally struct {
	seen    int
	decoded int
	sample  string
}

// warnIfUndecodable flags a record whose contexts are all in a foreign
// format, such as the dotted names coverage.py's own
// dynamic_context = test_function writes. Such an index maps every changed
// file to no tests.
func (t *contextTally) warnIfUndecodable(source m.Path) {
	if t.seen == 0 || t.decoded > 0 {
		return
	}

	slog.Warn("No coverage context names a pytest test, record coverage with pytest-cov --cov-context=test",
		"source", source, "contexts", t.seen, "example", t.sample)
}

func groupContexts(contexts map[int][]string, tally *contextTally) []m.TestCandidate {
	byFile := make(map[m.Path]m.TestCandidate)

	for _, lineContexts := range contexts {
		for _, raw := range lineContexts {
			if raw == "" {
				continue
			}

			tally.seen++
			if tally.sample == "" {
				tally.sample = raw
			}

			file, name, ok := DecodeTestID(raw)
			if !ok {
				continue
			}

			tally.decoded++

			c, exists := byFile[file]
			if !exists {
				c = m.NewTestCandidate(file)
			}

			c.Add(name)
			byFile[file] = c
		}
	}

	out := make([]m.TestCandidate, 0, len(byFile))
	for _, c := range byFile {
		out = append(out, c)
	}

	m.SortCandidates(out)

	return out
}

func mergeCandidates(existing, added []m.TestCandidate) []m.TestCandidate {
	if len(existing) == 0 {
		return added
	}

	sel := m.NewSelection()
	sel.Add(existing...)
	sel.Add(added...)

	return sel.Candidates()
}
