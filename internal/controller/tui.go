package controller

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	m "skippy.dev/pkg/skippy/internal/model"
)

// Lines kept for the header and the footer around the viewport.
const (
	headerHeight = 4
	footerHeight = 2
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// TUI implements UI for interactive terminals. Selection output stays plain
// text so it can still be piped; reports too tall for the screen open in a
// scrollable pager.
type TUI struct {
	*SimpleUI
}

// NewTUI creates a new TUI.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{SimpleUI: NewSimpleUI(cmd)}
}

// DisplayReport renders report, paging it when it does not fit.
func (t *TUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	output := t.cmd.OutOrStdout()
	title := fmt.Sprintf("skippy report: %d test file(s), %d changed file(s)", len(report.Selected), len(report.Changes))
	model := newPagerModel(title, renderReport(report))

	if f, ok := output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model = model.resize(width, height)
		}
	}

	if !model.needsPagination() {
		_, err := fmt.Fprint(output, model.staticView())
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

type pagerKeyMap struct {
	Quit   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

func defaultPagerKeyMap() pagerKeyMap {
	return pagerKeyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	}
}

// pagerModel is the Bubble Tea model that scrolls a rendered report.
type pagerModel struct {
	title    string
	content  string
	keys     pagerKeyMap
	viewport viewport.Model
	height   int
	width    int
	quitting bool
}

func newPagerModel(title, content string) pagerModel {
	vp := viewport.New(0, 0)
	vp.SetContent(content)

	return pagerModel{
		title:    title,
		content:  content,
		keys:     defaultPagerKeyMap(),
		viewport: vp,
	}
}

func (pm pagerModel) resize(width, height int) pagerModel {
	pm.width = width
	pm.height = height
	pm.viewport.Width = width

	pm.viewport.Height = height - headerHeight - footerHeight
	if pm.viewport.Height < 1 {
		pm.viewport.Height = 1
	}

	return pm
}

// needsPagination returns true if the content is taller than the screen.
func (pm pagerModel) needsPagination() bool {
	if pm.height == 0 {
		return false
	}

	return strings.Count(pm.content, "\n") > pm.viewport.Height
}

func (pm pagerModel) Init() tea.Cmd {
	return nil
}

func (pm pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return pm.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, pm.keys.Quit):
			pm.quitting = true
			return pm, tea.Quit
		case key.Matches(msg, pm.keys.Top):
			pm.viewport.GotoTop()
			return pm, nil
		case key.Matches(msg, pm.keys.Bottom):
			pm.viewport.GotoBottom()
			return pm, nil
		}
	}

	var cmd tea.Cmd
	pm.viewport, cmd = pm.viewport.Update(msg)

	return pm, cmd
}

func (pm pagerModel) View() string {
	if pm.quitting {
		return ""
	}

	var b strings.Builder

	pm.renderHeader(&b)
	b.WriteString(pm.viewport.View())
	b.WriteString("\n")
	pm.renderFooter(&b)

	return b.String()
}

// staticView renders the whole report without a viewport.
func (pm pagerModel) staticView() string {
	var b strings.Builder

	pm.renderHeader(&b)
	b.WriteString(pm.content)

	return b.String()
}

func (pm pagerModel) renderHeader(b *strings.Builder) {
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(pm.title))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(strings.Repeat("─", max(lipgloss.Width(pm.title)+2, 1))))
	b.WriteString("\n")
}

func (pm pagerModel) renderFooter(b *strings.Builder) {
	help := []string{"↑/k: up", "↓/j: down", "g: top", "G: bottom", "q: quit"}
	fmt.Fprintf(b, "%s\n", footerStyle.Render(fmt.Sprintf("%3.f%% | %s", pm.viewport.ScrollPercent()*100, strings.Join(help, " | "))))
}
