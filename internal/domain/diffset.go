package domain

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
	m "skippy.dev/pkg/skippy/internal/model"
)

const (
	devNull      = "/dev/null"
	beforeMarker = "--- "
	afterMarker  = "+++ "
	hunkMarker   = "@@"
)

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// DiffSet is the parsed form of a unified diff: one ChangedFile per path,
// addressable by path and iterable in the order the diff lists them.
type DiffSet struct {
	order []m.Path
	files map[m.Path]m.ChangedFile
}

// ParseDiff parses the text of a unified diff into a DiffSet.
//
// A file section starts at a "--- before" / "+++ after" line pair and must
// contain at least one "@@" hunk. Hunk bodies are consumed according to the
// counts in their headers. Metadata lines (diff --git, index, mode changes,
// renames, binary markers) are skipped.
func ParseDiff(text string) (*DiffSet, error) {
	p := diffParser{
		lines: splitLines(text),
		set: &DiffSet{
			files: make(map[m.Path]m.ChangedFile),
		},
	}

	if err := p.parse(); err != nil {
		return nil, err
	}

	return p.set, nil
}

// ChangedFiles returns the changed paths in diff order.
func (d *DiffSet) ChangedFiles() []m.Path {
	out := make([]m.Path, len(d.order))
	copy(out, d.order)

	return out
}

// Len returns the number of changed files.
func (d *DiffSet) Len() int {
	return len(d.order)
}

// Contains reports whether the diff touched path.
func (d *DiffSet) Contains(path m.Path) bool {
	_, ok := d.files[path.Clean()]
	return ok
}

// Get returns the hunk text recorded for path.
func (d *DiffSet) Get(path m.Path) (string, error) {
	f, ok := d.files[path.Clean()]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrPathNotChanged)
	}

	return f.HunkText, nil
}

// Stat counts added, changed and deleted lines for path.
func (d *DiffSet) Stat(path m.Path) m.DiffStat {
	f, ok := d.files[path.Clean()]
	if !ok || f.HunkText == "" {
		return m.DiffStat{}
	}

	hunks, err := diff.ParseHunks([]byte(f.HunkText + "\n"))
	if err != nil {
		slog.Debug("Failed to compute diff stat", "path", path, "error", err)
		return m.DiffStat{}
	}

	var stat m.DiffStat

	for _, h := range hunks {
		s := h.Stat()
		stat.Added += s.Added
		stat.Changed += s.Changed
		stat.Deleted += s.Deleted
	}

	return stat
}

func (d *DiffSet) put(file m.ChangedFile) {
	if _, exists := d.files[file.Path]; exists {
		slog.Warn("Diff lists the same file twice, keeping the last section", "path", file.Path)
	} else {
		d.order = append(d.order, file.Path)
	}

	d.files[file.Path] = file
}

type diffParser struct {
	lines []string
	pos   int
	set   *DiffSet
}

func (p *diffParser) parse() error {
	for p.pos < len(p.lines) {
		if !p.atBoundary() {
			p.pos++
			continue
		}

		before := parseMarkerPath(strings.TrimPrefix(p.lines[p.pos], beforeMarker), "a/")
		after := parseMarkerPath(strings.TrimPrefix(p.lines[p.pos+1], afterMarker), "b/")

		path := after
		if path == devNull {
			path = before
		}

		path = path.Clean()
		p.pos += 2

		hunks, err := p.readHunks(path)
		if err != nil {
			return err
		}

		p.set.put(m.ChangedFile{Path: path, HunkText: strings.Join(hunks, "\n")})
	}

	return nil
}

func (p *diffParser) atBoundary() bool {
	if p.pos+1 >= len(p.lines) {
		return false
	}

	return strings.HasPrefix(p.lines[p.pos], beforeMarker) && strings.HasPrefix(p.lines[p.pos+1], afterMarker)
}

func (p *diffParser) readHunks(path m.Path) ([]string, error) {
	var out []string

	for p.pos < len(p.lines) && strings.HasPrefix(p.lines[p.pos], hunkMarker) {
		header := p.lines[p.pos]

		oldCount, newCount, err := parseHunkHeader(header)
		if err != nil {
			return nil, &DiffHandlerError{Path: path, Line: p.pos + 1, Reason: err.Error()}
		}

		out = append(out, header)
		p.pos++

		body, err := p.readHunkBody(path, oldCount, newCount)
		if err != nil {
			return nil, err
		}

		out = append(out, body...)
	}

	if len(out) == 0 {
		return nil, &DiffHandlerError{Path: path, Line: p.pos + 1, Reason: "file section has no hunk marker"}
	}

	return out, nil
}

func (p *diffParser) readHunkBody(path m.Path, oldCount, newCount int) ([]string, error) {
	var body []string

	for oldCount > 0 || newCount > 0 {
		if p.pos >= len(p.lines) {
			return nil, &DiffHandlerError{Path: path, Line: p.pos + 1, Reason: "hunk ends before its declared line counts"}
		}

		line := p.lines[p.pos]

		switch {
		case line == "" || line[0] == ' ':
			oldCount--
			newCount--
		case line[0] == '-':
			oldCount--
		case line[0] == '+':
			newCount--
		case line[0] == '\\':
		default:
			return nil, &DiffHandlerError{Path: path, Line: p.pos + 1, Reason: fmt.Sprintf("unexpected line in hunk: %q", line)}
		}

		if oldCount < 0 || newCount < 0 {
			return nil, &DiffHandlerError{Path: path, Line: p.pos + 1, Reason: "hunk is longer than its header declares"}
		}

		body = append(body, line)
		p.pos++
	}

	// "\ No newline at end of file" may trail the last counted line.
	for p.pos < len(p.lines) && strings.HasPrefix(p.lines[p.pos], `\`) {
		body = append(body, p.lines[p.pos])
		p.pos++
	}

	return body, nil
}

func parseHunkHeader(line string) (int, int, error) {
	match := hunkHeaderPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, 0, fmt.Errorf("malformed hunk header %q", line)
	}

	oldCount, err := hunkCount(match[2])
	if err != nil {
		return 0, 0, err
	}

	newCount, err := hunkCount(match[4])
	if err != nil {
		return 0, 0, err
	}

	return oldCount, newCount, nil
}

func hunkCount(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("malformed hunk count %q: %w", raw, err)
	}

	return n, nil
}

// parseMarkerPath extracts the path from the text after a ---/+++ marker.
func parseMarkerPath(raw, prefix string) m.Path {
	if tab := strings.IndexByte(raw, '\t'); tab >= 0 {
		raw = raw[:tab]
	}

	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, `"`) {
		if unquoted, err := strconv.Unquote(raw); err == nil {
			raw = unquoted
		}
	}

	if raw == devNull {
		return devNull
	}

	return m.Path(strings.TrimPrefix(raw, prefix))
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}
