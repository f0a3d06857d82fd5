package domain

import (
	"strings"

	m "skippy.dev/pkg/skippy/internal/model"
)

const phaseSeparator = "|"

// DecodeTestID splits a raw coverage context into the owning test file and
// the test name relative to it.
//
// The phase suffix is cut at the last "|" first, because parametrized IDs may
// embed "|" inside their brackets. The remainder is split at the first "::",
// so class-qualified names keep their inner separators. ok is false for
// contexts that carry no "::" (such as the empty static context).
func DecodeTestID(raw string) (file m.Path, name string, ok bool) {
	id := StripPhase(raw)

	before, after, found := strings.Cut(id, m.TestIDSeparator)
	if !found || before == "" || after == "" {
		return "", "", false
	}

	return m.Path(before), after, true
}

// StripPhase removes the trailing "|phase" suffix from a coverage context.
func StripPhase(raw string) string {
	if i := strings.LastIndex(raw, phaseSeparator); i >= 0 {
		return raw[:i]
	}

	return raw
}
