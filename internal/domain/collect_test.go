package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"skippy.dev/pkg/skippy/internal/domain"
)

func TestIntersectCollected(t *testing.T) {
	tests := []struct {
		name      string
		selected  []string
		collected []string
		want      []string
	}{
		{
			name:      "keeps collection order",
			selected:  []string{"a.py::test_a", "b.py::test_b"},
			collected: []string{"b.py::test_b", "c.py::test_c", "a.py::test_a"},
			want:      []string{"b.py::test_b", "a.py::test_a"},
		},
		{
			name:      "selected but not collected",
			selected:  []string{"a.py::test_a", "gone.py::test_gone"},
			collected: []string{"a.py::test_a"},
			want:      []string{"a.py::test_a"},
		},
		{
			name:      "exact match only",
			selected:  []string{"a.py::test_p"},
			collected: []string{"a.py::test_p[1]", "a.py::test_p[2]"},
			want:      []string{},
		},
		{
			name:      "duplicates collapse",
			selected:  []string{"a.py::test_a"},
			collected: []string{"a.py::test_a", "a.py::test_a"},
			want:      []string{"a.py::test_a"},
		},
		{
			name:      "nothing selected",
			selected:  nil,
			collected: []string{"a.py::test_a"},
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.IntersectCollected(tt.selected, tt.collected))
		})
	}
}
