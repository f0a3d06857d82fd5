package domain_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skippy.dev/pkg/skippy/internal/domain"
	m "skippy.dev/pkg/skippy/internal/model"
)

// stubDiscoverer returns fixed candidates and records the paths it saw.
type stubDiscoverer struct {
	mu         sync.Mutex
	candidates map[m.Path]m.TestCandidate
	seen       []m.Path
}

func (s *stubDiscoverer) Discover(_ context.Context, path m.Path) (m.TestCandidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen = append(s.seen, path)

	c, ok := s.candidates[path]

	return c, ok
}

func mustParseDiff(t *testing.T, paths ...string) *domain.DiffSet {
	t.Helper()

	var text string
	for _, p := range paths {
		text += "--- a/" + p + "\n+++ b/" + p + "\n@@ -1 +1 @@\n-a\n+b\n"
	}

	diff, err := domain.ParseDiff(text)
	require.NoError(t, err)

	return diff
}

func TestSelector_Select(t *testing.T) {
	ctx := context.Background()

	t.Run("covered source file", func(t *testing.T) {
		diff := mustParseDiff(t, "foo.py")
		index := domain.NewCoverageIndexFromMap(map[m.Path][]string{
			"foo.py": {"a.py::test_a|run", "b.py::test_b|run"},
		})

		selection, outcomes, err := domain.NewSelector(&stubDiscoverer{}, domain.SelectOptions{}).Select(ctx, diff, index)
		require.NoError(t, err)

		assert.Equal(t, []string{"a.py::test_a", "b.py::test_b"}, selection.Flatten())
		require.Len(t, outcomes, 1)
		assert.Equal(t, m.ReasonCovered, outcomes[0].Reason)
		assert.Equal(t, 2, outcomes[0].Tests)
	})

	t.Run("changed test file and coverage are unioned", func(t *testing.T) {
		diff := mustParseDiff(t, "tests/test_a.py", "src/lib.py")
		index := domain.NewCoverageIndexFromMap(map[m.Path][]string{
			"src/lib.py":      {"tests/test_a.py::test_old|run"},
			"tests/test_a.py": {"tests/test_a.py::test_old|call"},
		})
		discoverer := &stubDiscoverer{candidates: map[m.Path]m.TestCandidate{
			"tests/test_a.py": m.NewTestCandidate("tests/test_a.py", "test_new", "TestK::test_k"),
		}}

		selection, outcomes, err := domain.NewSelector(discoverer, domain.SelectOptions{Threads: 2}).Select(ctx, diff, index)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"tests/test_a.py::TestK::test_k",
			"tests/test_a.py::test_new",
			"tests/test_a.py::test_old",
		}, selection.Flatten())
		assert.Equal(t, 1, selection.Len())

		require.Len(t, outcomes, 2)
		assert.Equal(t, m.Path("tests/test_a.py"), outcomes[0].Path)
		assert.Equal(t, m.ReasonCoveredTestFile, outcomes[0].Reason)
		assert.Equal(t, 3, outcomes[0].Tests)
		assert.Equal(t, m.ReasonCovered, outcomes[1].Reason)
	})

	t.Run("new test file without coverage", func(t *testing.T) {
		diff := mustParseDiff(t, "tests/test_new.py")
		discoverer := &stubDiscoverer{candidates: map[m.Path]m.TestCandidate{
			"tests/test_new.py": m.NewTestCandidate("tests/test_new.py", "test_one"),
		}}

		selection, outcomes, err := domain.NewSelector(discoverer, domain.SelectOptions{}).Select(ctx, diff, domain.NewCoverageIndexFromMap(nil))
		require.NoError(t, err)

		assert.Equal(t, []string{"tests/test_new.py::test_one"}, selection.Flatten())
		assert.Equal(t, m.ReasonTestFile, outcomes[0].Reason)
	})

	t.Run("unmapped and ignored files select nothing", func(t *testing.T) {
		diff := mustParseDiff(t, "README.md", "src/untested.py")
		discoverer := &stubDiscoverer{}

		selection, outcomes, err := domain.NewSelector(discoverer, domain.SelectOptions{}).Select(ctx, diff, domain.NewCoverageIndexFromMap(nil))
		require.NoError(t, err)

		require.NotNil(t, selection)
		assert.Equal(t, 0, selection.Len())
		assert.Empty(t, selection.Flatten())

		require.Len(t, outcomes, 2)
		assert.Equal(t, m.ReasonIgnored, outcomes[0].Reason)
		assert.Equal(t, m.ReasonUnmapped, outcomes[1].Reason)
		assert.Equal(t, []m.Path{"src/untested.py"}, discoverer.seen)
	})

	t.Run("test files without tests are not reported as unmapped", func(t *testing.T) {
		logs := captureWarnings(t)

		diff := mustParseDiff(t, "tests/test_empty.py", "tests/test_removed.py", "src/untested.py")

		selection, outcomes, err := domain.NewSelector(&stubDiscoverer{}, domain.SelectOptions{}).Select(ctx, diff, domain.NewCoverageIndexFromMap(nil))
		require.NoError(t, err)

		assert.Equal(t, 0, selection.Len())
		require.Len(t, outcomes, 3)
		assert.Equal(t, m.ReasonNoTests, outcomes[0].Reason)
		assert.Equal(t, m.ReasonNoTests, outcomes[1].Reason)
		assert.Equal(t, m.ReasonUnmapped, outcomes[2].Reason)

		assert.Equal(t, 1, strings.Count(logs.String(), "level=WARN"))
		assert.Contains(t, logs.String(), "path=src/untested.py")
		assert.NotContains(t, logs.String(), "test_empty.py")
	})

	t.Run("configured test file matcher", func(t *testing.T) {
		diff := mustParseDiff(t, "tests/check_api.py", "tests/test_api.py")
		opts := domain.SelectOptions{TestFiles: domain.NewPatternMatcher("check_*.py")}

		_, outcomes, err := domain.NewSelector(&stubDiscoverer{}, opts).Select(ctx, diff, domain.NewCoverageIndexFromMap(nil))
		require.NoError(t, err)

		require.Len(t, outcomes, 2)
		assert.Equal(t, m.ReasonNoTests, outcomes[0].Reason)
		assert.Equal(t, m.ReasonUnmapped, outcomes[1].Reason)
	})

	t.Run("configured extensions", func(t *testing.T) {
		diff := mustParseDiff(t, "schema.sql", "foo.py")
		index := domain.NewCoverageIndexFromMap(map[m.Path][]string{
			"schema.sql": {"tests/test_db.py::test_schema|run"},
			"foo.py":     {"tests/test_foo.py::test_foo|run"},
		})

		selection, outcomes, err := domain.NewSelector(&stubDiscoverer{}, domain.SelectOptions{Extensions: []string{"sql"}}).Select(ctx, diff, index)
		require.NoError(t, err)

		assert.Equal(t, []string{"tests/test_db.py::test_schema"}, selection.Flatten())
		assert.Equal(t, m.ReasonCovered, outcomes[0].Reason)
		assert.Equal(t, m.ReasonIgnored, outcomes[1].Reason)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := domain.NewSelector(&stubDiscoverer{}, domain.SelectOptions{}).Select(cancelled, mustParseDiff(t, "foo.py"), domain.NewCoverageIndexFromMap(nil))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSelector_Select_Idempotent(t *testing.T) {
	paths := []string{"a.py", "b.py", "tests/test_c.py", "tests/test_d.py", "docs/index.rst"}
	diff := mustParseDiff(t, paths...)
	index := domain.NewCoverageIndexFromMap(map[m.Path][]string{
		"a.py": {"tests/test_c.py::test_1|run", "tests/test_e.py::TestE::test_2|run"},
		"b.py": {"tests/test_e.py::test_3|run"},
	})
	discoverer := &stubDiscoverer{candidates: map[m.Path]m.TestCandidate{
		"tests/test_c.py": m.NewTestCandidate("tests/test_c.py", "test_1", "test_4"),
		"tests/test_d.py": m.NewTestCandidate("tests/test_d.py", "test_5"),
	}}

	sel := domain.NewSelector(discoverer, domain.SelectOptions{Threads: 4})

	first, firstOutcomes, err := sel.Select(context.Background(), diff, index)
	require.NoError(t, err)

	second, secondOutcomes, err := sel.Select(context.Background(), diff, index)
	require.NoError(t, err)

	assert.Equal(t, first.Flatten(), second.Flatten())
	assert.Equal(t, first.Candidates(), second.Candidates())
	assert.Equal(t, firstOutcomes, secondOutcomes)

	sequential, _, err := domain.NewSelector(discoverer, domain.SelectOptions{Threads: 1}).Select(context.Background(), diff, index)
	require.NoError(t, err)
	assert.Equal(t, first.Flatten(), sequential.Flatten())
}
