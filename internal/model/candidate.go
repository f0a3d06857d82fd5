package model

import (
	"sort"
)

// TestIDSeparator joins a test file to the test name in a pytest node ID.
const TestIDSeparator = "::"

// TestCandidate groups the tests a single test file defines.
//
// Tests holds names relative to OwningFile (e.g. "TestFoo::test_x" or
// "test_y"), already stripped of any coverage phase suffix.
type TestCandidate struct {
	OwningFile Path
	Tests      map[string]struct{}
}

// NewTestCandidate builds a candidate from a file and a list of test names.
func NewTestCandidate(file Path, tests ...string) TestCandidate {
	c := TestCandidate{
		OwningFile: file,
		Tests:      make(map[string]struct{}, len(tests)),
	}

	for _, t := range tests {
		c.Tests[t] = struct{}{}
	}

	return c
}

// Add records a test name on the candidate.
func (c *TestCandidate) Add(name string) {
	if c.Tests == nil {
		c.Tests = make(map[string]struct{})
	}

	c.Tests[name] = struct{}{}
}

// Len returns the number of tests on the candidate.
func (c TestCandidate) Len() int {
	return len(c.Tests)
}

// Names returns the unqualified test names in sorted order.
func (c TestCandidate) Names() []string {
	names := make([]string, 0, len(c.Tests))
	for name := range c.Tests {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// QualifiedID joins an owning file and a test name into a pytest node ID,
// "path::name". Names may themselves contain "::" for class members.
func QualifiedID(file Path, name string) string {
	return string(file) + TestIDSeparator + name
}

// QualifiedSet expands the candidate to fully qualified test IDs.
func (c TestCandidate) QualifiedSet() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Tests))
	for name := range c.Tests {
		out[QualifiedID(c.OwningFile, name)] = struct{}{}
	}

	return out
}

// Less orders candidates by owning file only.
func (c TestCandidate) Less(other TestCandidate) bool {
	return c.OwningFile < other.OwningFile
}

// Equal compares both the owning file and the test set.
func (c TestCandidate) Equal(other TestCandidate) bool {
	if c.OwningFile != other.OwningFile || len(c.Tests) != len(other.Tests) {
		return false
	}

	for name := range c.Tests {
		if _, ok := other.Tests[name]; !ok {
			return false
		}
	}

	return true
}

// Clone returns a deep copy with its own test set.
func (c TestCandidate) Clone() TestCandidate {
	return NewTestCandidate(c.OwningFile, c.Names()...)
}

// SortCandidates sorts candidates in place by owning file.
func SortCandidates(candidates []TestCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Less(candidates[j])
	})
}

// Selection is the set of test candidates chosen for a run, keyed by owning
// file. Adding a candidate for a file already present unions the test sets.
type Selection struct {
	byFile map[Path]TestCandidate
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{byFile: make(map[Path]TestCandidate)}
}

// Add merges candidates into the selection.
func (s *Selection) Add(candidates ...TestCandidate) {
	for _, c := range candidates {
		current, ok := s.byFile[c.OwningFile]
		if !ok {
			current = NewTestCandidate(c.OwningFile)
		}

		for name := range c.Tests {
			current.Add(name)
		}

		s.byFile[c.OwningFile] = current
	}
}

// Len returns the number of distinct test files in the selection.
func (s *Selection) Len() int {
	return len(s.byFile)
}

// Candidates returns a sorted copy of the selected candidates.
func (s *Selection) Candidates() []TestCandidate {
	out := make([]TestCandidate, 0, len(s.byFile))
	for _, c := range s.byFile {
		out = append(out, c.Clone())
	}

	SortCandidates(out)

	return out
}

// Flatten returns the sorted, deduplicated qualified test IDs.
func (s *Selection) Flatten() []string {
	return FlattenCandidates(s.Candidates())
}

// FlattenCandidates expands candidates to sorted, deduplicated test IDs.
func FlattenCandidates(candidates []TestCandidate) []string {
	seen := make(map[string]struct{})
	for _, c := range candidates {
		for id := range c.QualifiedSet() {
			seen[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
