package domain

import (
	"path/filepath"
	"strings"

	m "skippy.dev/pkg/skippy/internal/model"
)

// FilterByPath keeps the candidates whose owning file lies under at least
// one of roots. With keepPrefix false the kept paths are rewritten relative
// to the root that matched, which is only defined for a single root.
// A candidate whose owning file is the root itself keeps its path unchanged.
// Candidates under no root are dropped.
func FilterByPath(candidates []m.TestCandidate, roots []m.Path, keepPrefix bool) ([]m.TestCandidate, error) {
	if !keepPrefix && len(roots) > 1 {
		return nil, &FilterCandidatesError{Roots: roots}
	}

	filtered := make([]m.TestCandidate, 0, len(candidates))

	for _, c := range candidates {
		for _, root := range roots {
			rel, ok := under(root, c.OwningFile)
			if !ok {
				continue
			}

			kept := c.Clone()
			if !keepPrefix && rel != "." {
				kept.OwningFile = rel
			}

			filtered = append(filtered, kept)

			break
		}
	}

	m.SortCandidates(filtered)

	return filtered, nil
}

// under reports whether path lies inside root, comparing whole path
// components, and returns path relative to root.
func under(root, path m.Path) (m.Path, bool) {
	r := root.Clean()
	p := path.Clean()

	if r == "." {
		if p.IsAbs() || p == ".." || strings.HasPrefix(string(p), "../") {
			return "", false
		}

		return p, true
	}

	if r.IsAbs() != p.IsAbs() {
		return "", false
	}

	rel, err := filepath.Rel(string(r), string(p))
	if err != nil {
		return "", false
	}

	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}

	return m.Path(rel), true
}
