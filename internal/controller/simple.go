package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "skippy.dev/pkg/skippy/internal/model"
)

// SimpleUI implements UI using the cobra command's output streams.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplaySelection prints the IDs space-separated on one line of stdout.
func (s *SimpleUI) DisplaySelection(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(s.cmd.OutOrStdout(), strings.Join(ids, " "))

	return err
}

// DisplayChanges prints a per-file table to stderr so stdout stays parseable.
func (s *SimpleUI) DisplayChanges(ctx context.Context, outcomes []m.ChangeOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(s.cmd.ErrOrStderr(), "\n%s", renderChangesTable(outcomes))

	return err
}

// DisplayReport prints the report header, its changes and its selected tests.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := io.WriteString(s.cmd.OutOrStdout(), renderReport(report))

	return err
}

func renderReport(report m.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Diff:      %s\n", report.DiffSource)
	fmt.Fprintf(&b, "Coverage:  %s\n", report.Coverage)
	fmt.Fprintf(&b, "Created:   %s\n", report.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	if len(report.Roots) > 0 {
		roots := make([]string, 0, len(report.Roots))
		for _, r := range report.Roots {
			roots = append(roots, string(r))
		}

		fmt.Fprintf(&b, "Roots:     %s (keep prefix: %t)\n", strings.Join(roots, ", "), report.KeepPrefix)
	}

	b.WriteString("\n")
	b.WriteString(renderChangesTable(reportOutcomes(report)))
	b.WriteString("\n")
	b.WriteString(renderSelectedTable(report.Candidates()))

	return b.String()
}

func reportOutcomes(report m.Report) []m.ChangeOutcome {
	outcomes := make([]m.ChangeOutcome, 0, len(report.Changes))
	for _, c := range report.Changes {
		outcomes = append(outcomes, m.ChangeOutcome{
			Path:   c.Path,
			Reason: c.Reason,
			Tests:  c.Tests,
			Stat:   m.DiffStat{Added: c.Added, Deleted: c.Deleted},
		})
	}

	return outcomes
}

func renderChangesTable(outcomes []m.ChangeOutcome) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Changed file", "+/-", "Reason", "Tests"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
	})

	totalTests := 0

	for _, o := range outcomes {
		table.Append([]string{
			string(o.Path),
			fmt.Sprintf("+%d/-%d", o.Stat.Added, o.Stat.Deleted),
			string(o.Reason),
			fmt.Sprintf("%d", o.Tests),
		})

		totalTests += o.Tests
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(outcomes)),
		"",
		"",
		fmt.Sprintf("%d", totalTests),
	})

	table.Render()

	return tableBuffer.String()
}

func renderSelectedTable(candidates []m.TestCandidate) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Test file", "Tests"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAutoMergeCells(true)

	total := 0

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })

	for _, c := range candidates {
		for _, name := range c.Names() {
			table.Append([]string{string(c.OwningFile), name})
		}

		total += c.Len()
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(candidates)),
		fmt.Sprintf("%d", total),
	})

	table.Render()

	return tableBuffer.String()
}
