package model

import "time"

// ChangeReason explains how a changed file contributed to the selection.
type ChangeReason string

const (
	// ReasonCovered means the file has recorded coverage.
	ReasonCovered ChangeReason = "covered"
	// ReasonTestFile means the file is a test file with discoverable tests.
	ReasonTestFile ChangeReason = "test-file"
	// ReasonCoveredTestFile means both of the above apply.
	ReasonCoveredTestFile ChangeReason = "covered+test-file"
	// ReasonNoTests means the file is a test file, but it was removed or
	// defines no tests.
	ReasonNoTests ChangeReason = "test-file-empty"
	// ReasonUnmapped means the file has no coverage and is not a test file.
	ReasonUnmapped ChangeReason = "unmapped"
	// ReasonIgnored means the file extension is not tracked.
	ReasonIgnored ChangeReason = "ignored"
)

// ChangeOutcome records what the selection engine did with one changed file.
type ChangeOutcome struct {
	Path   Path
	Reason ChangeReason
	Tests  int
	Stat   DiffStat
}

// Report is the persisted form of a selection run.
type Report struct {
	Version    int               `yaml:"version"`
	CreatedAt  time.Time         `yaml:"created_at"`
	DiffSource string            `yaml:"diff_source"`
	Coverage   Path              `yaml:"coverage"`
	Roots      []Path            `yaml:"roots,omitempty"`
	KeepPrefix bool              `yaml:"keep_prefix"`
	Changes    []ReportChange    `yaml:"changes"`
	Selected   map[Path][]string `yaml:"selected"`
}

// ReportChange is the persisted form of a ChangeOutcome.
type ReportChange struct {
	Path    Path         `yaml:"path"`
	Reason  ChangeReason `yaml:"reason"`
	Tests   int          `yaml:"tests"`
	Added   int32        `yaml:"added"`
	Deleted int32        `yaml:"deleted"`
}

// ReportVersion is the current Report schema version.
const ReportVersion = 1

// NewReport builds a Report from selection results.
func NewReport(source string, coverage Path, outcomes []ChangeOutcome, candidates []TestCandidate) Report {
	report := Report{
		Version:    ReportVersion,
		CreatedAt:  time.Now().UTC(),
		DiffSource: source,
		Coverage:   coverage,
		Changes:    make([]ReportChange, 0, len(outcomes)),
		Selected:   make(map[Path][]string, len(candidates)),
	}

	for _, o := range outcomes {
		report.Changes = append(report.Changes, ReportChange{
			Path:    o.Path,
			Reason:  o.Reason,
			Tests:   o.Tests,
			Added:   o.Stat.Added,
			Deleted: o.Stat.Deleted,
		})
	}

	for _, c := range candidates {
		report.Selected[c.OwningFile] = c.Names()
	}

	return report
}

// Candidates rebuilds the selected candidates from the report.
func (r Report) Candidates() []TestCandidate {
	out := make([]TestCandidate, 0, len(r.Selected))
	for file, names := range r.Selected {
		out = append(out, NewTestCandidate(file, names...))
	}

	SortCandidates(out)

	return out
}
