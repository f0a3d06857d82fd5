package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUI_DisplayReport_NotATerminal(t *testing.T) {
	cmd, stdout, _ := newTestCommand()

	require.NoError(t, NewTUI(cmd).DisplayReport(context.Background(), sampleReport()))

	out := stdout.String()
	assert.Contains(t, out, "skippy report: 1 test file(s), 2 changed file(s)")
	assert.Contains(t, out, "tests/test_foo.py")
}

func TestTUI_DisplayReport_UsesOutputSetAfterConstruction(t *testing.T) {
	cmd, early, _ := newTestCommand()
	tui := NewTUI(cmd)

	late := &bytes.Buffer{}
	cmd.SetOut(late)

	require.NoError(t, tui.DisplayReport(context.Background(), sampleReport()))

	assert.Empty(t, early.String())
	assert.Contains(t, late.String(), "skippy report: 1 test file(s), 2 changed file(s)")
}

func TestTUI_DisplaySelection_IsPlain(t *testing.T) {
	cmd, stdout, _ := newTestCommand()

	require.NoError(t, NewTUI(cmd).DisplaySelection(context.Background(), []string{"a.py::test_a"}))

	assert.Equal(t, "a.py::test_a\n", stdout.String())
}

func TestPagerModel_Pagination(t *testing.T) {
	content := strings.Repeat("line\n", 50)

	model := newPagerModel("title", content)
	assert.False(t, model.needsPagination(), "unsized models never page")

	model = model.resize(80, 100)
	assert.False(t, model.needsPagination())

	model = model.resize(80, 20)
	assert.True(t, model.needsPagination())
	assert.Equal(t, 20-headerHeight-footerHeight, model.viewport.Height)

	model = model.resize(80, 2)
	assert.Equal(t, 1, model.viewport.Height)
}

func TestPagerModel_Update(t *testing.T) {
	model := newPagerModel("title", strings.Repeat("line\n", 50)).resize(80, 20)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnd})
	assert.Nil(t, cmd)
	assert.True(t, updated.(pagerModel).viewport.AtBottom())

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyHome})
	assert.True(t, updated.(pagerModel).viewport.AtTop())

	updated, _ = updated.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, updated.(pagerModel).width)

	updated, cmd = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, updated.View())
}

func TestPagerModel_View(t *testing.T) {
	model := newPagerModel("skippy report", "body line\n").resize(80, 20)

	view := model.View()
	assert.Contains(t, view, "skippy report")
	assert.Contains(t, view, "body line")
	assert.Contains(t, view, "q: quit")

	static := model.staticView()
	assert.Contains(t, static, "body line")
	assert.NotContains(t, static, "q: quit")
}
