package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"skippy.dev/pkg/skippy/internal/adapter"
	"skippy.dev/pkg/skippy/internal/controller"
	m "skippy.dev/pkg/skippy/internal/model"
)

// SelectArgs holds the inputs of a selection run.
type SelectArgs struct {
	// Diff is a diff file or a git revision. Empty means the default branch.
	Diff         string
	CoverageFile m.Path
	RelativeTo   []m.Path
	KeepPrefix   bool
	Threads      int
	Extensions   []string
	// Summary prints the per-file outcome table alongside the selection.
	Summary  bool
	SavePath m.Path
}

// FilterArgs holds the inputs of a collection filter run.
type FilterArgs struct {
	SelectArgs
	// Collected are the IDs pytest collected. When Collect is set they are
	// obtained by running pytest instead.
	Collected  []string
	Collect    bool
	PytestArgs []string
}

// SelectResult is the outcome of a selection run.
type SelectResult struct {
	IDs        []string
	Candidates []m.TestCandidate
	Outcomes   []m.ChangeOutcome
	Report     m.Report
}

// Workflow wires adapters and domain services into the user-facing
// operations.
type Workflow interface {
	Select(ctx context.Context, args SelectArgs) (SelectResult, error)
	Filter(ctx context.Context, args FilterArgs) ([]string, error)
	View(ctx context.Context, reportPath m.Path) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.GitAdapter
	adapter.ReportStore
	adapter.TestRunnerAdapter
	controller.UI

	python     adapter.PythonFileAdapter
	config     adapter.PytestConfigAdapter
	openRecord func(m.Path) adapter.CoverageRecord
}

// NewWorkflow creates a Workflow from its dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	gitAdapter adapter.GitAdapter,
	reportStore adapter.ReportStore,
	testAdapter adapter.TestRunnerAdapter,
	pyAdapter adapter.PythonFileAdapter,
	config adapter.PytestConfigAdapter,
	ui controller.UI,
) Workflow {
	return &workflow{
		SourceFSAdapter:   fsAdapter,
		GitAdapter:        gitAdapter,
		ReportStore:       reportStore,
		TestRunnerAdapter: testAdapter,
		UI:                ui,
		python:            pyAdapter,
		config:            config,
		openRecord:        adapter.OpenCoverageRecord,
	}
}

// Select computes the selection and displays it.
func (w *workflow) Select(ctx context.Context, args SelectArgs) (SelectResult, error) {
	result, err := w.selectTests(ctx, args)
	if err != nil {
		return SelectResult{}, err
	}

	if len(result.IDs) == 0 {
		slog.Info("No specific tests selected to run based on changes and coverage")
	}

	if err := w.DisplaySelection(ctx, result.IDs); err != nil {
		return SelectResult{}, err
	}

	return result, nil
}

// Filter computes the selection and keeps only the collected tests in it.
func (w *workflow) Filter(ctx context.Context, args FilterArgs) ([]string, error) {
	result, err := w.selectTests(ctx, args.SelectArgs)
	if err != nil {
		return nil, err
	}

	collected := args.Collected
	if args.Collect {
		wd, err := w.Getwd(ctx)
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}

		collected, err = w.CollectTests(ctx, string(wd), args.PytestArgs...)
		if err != nil {
			slog.Error("Failed to collect tests", "error", err)
			return nil, err
		}
	}

	kept := IntersectCollected(result.IDs, collected)

	if err := w.DisplaySelection(ctx, kept); err != nil {
		return nil, err
	}

	return kept, nil
}

// View loads a saved report and displays it.
func (w *workflow) View(ctx context.Context, reportPath m.Path) error {
	if _, err := w.FileInfo(ctx, reportPath); err != nil {
		return fmt.Errorf("report %s: %w", reportPath, ErrMissingArtifact)
	}

	report, err := w.LoadReport(reportPath)
	if err != nil {
		slog.Error("Failed to load report", "path", reportPath, "error", err)
		return err
	}

	return w.DisplayReport(ctx, report)
}

func (w *workflow) selectTests(ctx context.Context, args SelectArgs) (SelectResult, error) {
	root := w.projectRoot(ctx)

	if _, err := w.FileInfo(ctx, args.CoverageFile); err != nil {
		slog.Error("Coverage file not found", "path", args.CoverageFile, "error", err)
		return SelectResult{}, fmt.Errorf("coverage file %s: %w", args.CoverageFile, ErrMissingArtifact)
	}

	text, source, err := w.loadDiff(ctx, root, args.Diff)
	if err != nil {
		return SelectResult{}, err
	}

	diff, err := ParseDiff(text)
	if err != nil {
		slog.Error("Failed to parse diff", "source", source, "error", err)
		return SelectResult{}, err
	}

	slog.Debug("Diff parsed", "source", source, "files", diff.Len())

	record := w.openRecord(args.CoverageFile)
	defer func() {
		if err := record.Close(); err != nil {
			slog.Warn("Failed to close coverage record", "path", args.CoverageFile, "error", err)
		}
	}()

	index, err := NewCoverageIndex(ctx, record, root)
	if err != nil {
		return SelectResult{}, err
	}

	matcher := NewConfiguredMatcher(ctx, w.config)
	discoverer := NewTestDiscoverer(w.SourceFSAdapter, w.python, matcher, root)
	selector := NewSelector(discoverer, SelectOptions{
		Threads:    args.Threads,
		Extensions: args.Extensions,
		TestFiles:  matcher,
	})

	selection, outcomes, err := selector.Select(ctx, diff, index)
	if err != nil {
		return SelectResult{}, err
	}

	candidates := selection.Candidates()

	keepPrefix := args.KeepPrefix
	if len(args.RelativeTo) > 0 {
		if !keepPrefix && len(args.RelativeTo) > 1 {
			slog.Warn("Cannot strip prefix with more than one root, keeping full paths", "roots", args.RelativeTo)

			keepPrefix = true
		}

		candidates, err = FilterByPath(candidates, args.RelativeTo, keepPrefix)
		if err != nil {
			return SelectResult{}, err
		}
	}

	result := SelectResult{
		IDs:        m.FlattenCandidates(candidates),
		Candidates: candidates,
		Outcomes:   outcomes,
	}

	result.Report = m.NewReport(source, args.CoverageFile, outcomes, candidates)
	result.Report.Roots = args.RelativeTo
	result.Report.KeepPrefix = keepPrefix

	if args.Summary {
		if err := w.DisplayChanges(ctx, outcomes); err != nil {
			return SelectResult{}, err
		}
	}

	if args.SavePath != "" {
		if err := w.SaveReport(args.SavePath, result.Report); err != nil {
			slog.Error("Failed to save report", "path", args.SavePath, "error", err)
			return SelectResult{}, err
		}

		slog.Info("Report saved", "path", args.SavePath)
	}

	return result, nil
}

// loadDiff reads diff as a file when it exists and otherwise asks git for
// the diff against it as a revision. It returns the diff text and a label
// describing where it came from.
func (w *workflow) loadDiff(ctx context.Context, root m.Path, diff string) (string, string, error) {
	if diff != "" {
		info, statErr := w.FileInfo(ctx, m.Path(diff))
		if statErr == nil && !info.IsDir() {
			data, err := w.ReadFile(ctx, m.Path(diff))
			if err != nil {
				return "", "", fmt.Errorf("read diff %s: %w", diff, err)
			}

			return string(data), diff, nil
		}
	}

	rev := diff
	if rev == "" {
		branch, err := w.DefaultBranch(ctx, root)
		if err != nil {
			slog.Error("Failed to determine default branch", "error", err)
			return "", "", fmt.Errorf("no diff given and %w: %w", err, ErrMissingArtifact)
		}

		rev = branch
	}

	text, err := w.DiffAgainst(ctx, root, rev)
	if err != nil {
		slog.Error("Failed to diff against revision", "revision", rev, "error", err)
		return "", "", fmt.Errorf("%s is neither a diff file nor a revision (%w): %w", rev, err, ErrMissingArtifact)
	}

	return text, rev + "...HEAD", nil
}

// projectRoot is the git work tree root when there is one and the working
// directory otherwise.
func (w *workflow) projectRoot(ctx context.Context) m.Path {
	wd, err := w.Getwd(ctx)
	if err != nil {
		slog.Warn("Could not determine working directory", "error", err)
		return ""
	}

	root, err := w.RepositoryRoot(ctx, wd)
	if err != nil {
		slog.Debug("Not inside a git work tree, using working directory as root", "dir", wd, "error", err)
		return wd
	}

	return root
}

// IsMissingArtifact reports whether err was caused by a missing input file.
func IsMissingArtifact(err error) bool {
	return errors.Is(err, ErrMissingArtifact)
}
