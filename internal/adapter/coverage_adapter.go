package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	m "skippy.dev/pkg/skippy/internal/model"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// ErrRecordNotRead is returned when a record is queried before Read.
var ErrRecordNotRead = errors.New("coverage record not read")

// CoverageRecord is a per-source-file, per-line view of coverage contexts.
// Read must succeed before the other queries are used.
type CoverageRecord interface {
	// Source returns where the record is stored.
	Source() m.Path

	// Read materialises the record. It fails on missing or corrupt storage.
	Read(ctx context.Context) error

	// MeasuredFiles lists the source files the record has data for, sorted.
	MeasuredFiles(ctx context.Context) ([]m.Path, error)

	// ContextsForFile maps each measured line of path to the contexts that
	// executed it. An unknown path yields an empty map.
	ContextsForFile(ctx context.Context, path m.Path) (map[int][]string, error)

	// Close releases any handle held by the record.
	Close() error
}

// OpenCoverageRecord picks the record implementation from the file name:
// ".json" files are coverage.py JSON reports, anything else is a .coverage
// SQLite database.
func OpenCoverageRecord(path m.Path) CoverageRecord {
	if strings.EqualFold(path.Ext(), ".json") {
		return NewJSONCoverageRecord(path)
	}

	return NewSQLiteCoverageRecord(path)
}

// SQLiteCoverageRecord reads the database coverage.py writes under
// pytest-cov --cov-context=test, whose contexts look like "file::test|phase".
type SQLiteCoverageRecord struct {
	path m.Path

	mu       sync.Mutex
	db       *sql.DB
	hasArcs  bool
	files    map[m.Path]int64
	contexts map[int64]string
}

// NewSQLiteCoverageRecord creates a record for the database at path. Nothing
// is opened until Read.
func NewSQLiteCoverageRecord(path m.Path) *SQLiteCoverageRecord {
	return &SQLiteCoverageRecord{path: path}
}

// Source returns the database path.
func (r *SQLiteCoverageRecord) Source() m.Path {
	return r.path
}

// Read opens the database and loads the file and context tables.
func (r *SQLiteCoverageRecord) Read(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return nil
	}

	info, err := os.Stat(string(r.path))
	if err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", r.path)
	}

	db, err := sql.Open("sqlite", string(r.path))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := r.load(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	r.db = db

	return nil
}

func (r *SQLiteCoverageRecord) load(ctx context.Context, db *sql.DB) error {
	var hasArcs string

	err := db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'has_arcs'").Scan(&hasArcs)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		hasArcs = "0"
	case err != nil:
		return fmt.Errorf("read meta: %w", err)
	}

	r.hasArcs = hasArcs == "1" || strings.EqualFold(hasArcs, "true")

	r.files = make(map[m.Path]int64)
	if err := queryRows(ctx, db, "SELECT id, path FROM file", func(rows *sql.Rows) error {
		var (
			id   int64
			path string
		)

		if err := rows.Scan(&id, &path); err != nil {
			return err
		}

		r.files[m.Path(path)] = id

		return nil
	}); err != nil {
		return fmt.Errorf("read files: %w", err)
	}

	r.contexts = make(map[int64]string)
	if err := queryRows(ctx, db, "SELECT id, context FROM context", func(rows *sql.Rows) error {
		var (
			id   int64
			name string
		)

		if err := rows.Scan(&id, &name); err != nil {
			return err
		}

		r.contexts[id] = name

		return nil
	}); err != nil {
		return fmt.Errorf("read contexts: %w", err)
	}

	return nil
}

// MeasuredFiles returns the paths recorded in the file table.
func (r *SQLiteCoverageRecord) MeasuredFiles(_ context.Context) ([]m.Path, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil, ErrRecordNotRead
	}

	files := make([]m.Path, 0, len(r.files))
	for path := range r.files {
		files = append(files, path)
	}

	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	return files, nil
}

// ContextsForFile returns the contexts per line for path.
func (r *SQLiteCoverageRecord) ContextsForFile(ctx context.Context, path m.Path) (map[int][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil, ErrRecordNotRead
	}

	id, ok := r.files[path]
	if !ok {
		return map[int][]string{}, nil
	}

	lines := newLineContexts()

	if r.hasArcs {
		err := queryRows(ctx, r.db, "SELECT DISTINCT context_id, fromno, tono FROM arc WHERE file_id = ?", func(rows *sql.Rows) error {
			var contextID, from, to int64
			if err := rows.Scan(&contextID, &from, &to); err != nil {
				return err
			}

			for _, line := range []int64{from, to} {
				if line > 0 {
					lines.add(int(line), r.contexts[contextID])
				}
			}

			return nil
		}, id)
		if err != nil {
			return nil, fmt.Errorf("read arcs for %s: %w", path, err)
		}

		return lines.result(), nil
	}

	err := queryRows(ctx, r.db, "SELECT context_id, numbits FROM line_bits WHERE file_id = ?", func(rows *sql.Rows) error {
		var (
			contextID int64
			numbits   []byte
		)

		if err := rows.Scan(&contextID, &numbits); err != nil {
			return err
		}

		for _, line := range NumbitsToLines(numbits) {
			lines.add(line, r.contexts[contextID])
		}

		return nil
	}, id)
	if err != nil {
		return nil, fmt.Errorf("read line bits for %s: %w", path, err)
	}

	return lines.result(), nil
}

// Close closes the database.
func (r *SQLiteCoverageRecord) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}

	err := r.db.Close()
	r.db = nil

	return err
}

// NumbitsToLines decodes coverage.py's numbits blob: bit b of byte i marks
// line 8*i+b as measured.
func NumbitsToLines(numbits []byte) []int {
	var lines []int

	for i, b := range numbits {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				lines = append(lines, i*8+bit)
			}
		}
	}

	return lines
}

// LinesToNumbits is the inverse of NumbitsToLines.
func LinesToNumbits(lines []int) []byte {
	if len(lines) == 0 {
		return nil
	}

	maxLine := 0
	for _, line := range lines {
		if line > maxLine {
			maxLine = line
		}
	}

	numbits := make([]byte, maxLine/8+1)
	for _, line := range lines {
		if line < 0 {
			continue
		}

		numbits[line/8] |= 1 << (line % 8)
	}

	return numbits
}

func queryRows(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error, args ...any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}

	return rows.Err()
}

// JSONCoverageRecord reads the report of `coverage json --show-contexts`.
type JSONCoverageRecord struct {
	path m.Path

	mu     sync.Mutex
	report *coverageJSONReport
}

type coverageJSONReport struct {
	Meta struct {
		ShowContexts bool `json:"show_contexts"`
	} `json:"meta"`
	Files map[string]struct {
		Contexts map[string][]string `json:"contexts"`
	} `json:"files"`
}

// NewJSONCoverageRecord creates a record for the report at path.
func NewJSONCoverageRecord(path m.Path) *JSONCoverageRecord {
	return &JSONCoverageRecord{path: path}
}

// Source returns the report path.
func (r *JSONCoverageRecord) Source() m.Path {
	return r.path
}

// Read decodes the report.
func (r *JSONCoverageRecord) Read(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.report != nil {
		return nil
	}

	data, err := os.ReadFile(string(r.path))
	if err != nil {
		return err
	}

	var report coverageJSONReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("decode coverage report: %w", err)
	}

	if report.Files == nil {
		return fmt.Errorf("%s has no files section", r.path)
	}

	r.report = &report

	return nil
}

// MeasuredFiles returns the report's file keys, sorted.
func (r *JSONCoverageRecord) MeasuredFiles(_ context.Context) ([]m.Path, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.report == nil {
		return nil, ErrRecordNotRead
	}

	files := make([]m.Path, 0, len(r.report.Files))
	for path := range r.report.Files {
		files = append(files, m.Path(path))
	}

	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	return files, nil
}

// ContextsForFile returns the contexts per line for path.
func (r *JSONCoverageRecord) ContextsForFile(_ context.Context, path m.Path) (map[int][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.report == nil {
		return nil, ErrRecordNotRead
	}

	file, ok := r.report.Files[string(path)]
	if !ok {
		return map[int][]string{}, nil
	}

	lines := newLineContexts()

	for rawLine, contexts := range file.Contexts {
		line, err := strconv.Atoi(rawLine)
		if err != nil {
			return nil, fmt.Errorf("invalid line number %q for %s: %w", rawLine, path, err)
		}

		for _, c := range contexts {
			lines.add(line, c)
		}
	}

	return lines.result(), nil
}

// Close is a no-op for JSON reports.
func (r *JSONCoverageRecord) Close() error {
	return nil
}

type lineContexts map[int]map[string]struct{}

func newLineContexts() lineContexts {
	return make(lineContexts)
}

func (l lineContexts) add(line int, name string) {
	set, ok := l[line]
	if !ok {
		set = make(map[string]struct{})
		l[line] = set
	}

	set[name] = struct{}{}
}

func (l lineContexts) result() map[int][]string {
	out := make(map[int][]string, len(l))

	for line, set := range l {
		contexts := make([]string, 0, len(set))
		for c := range set {
			contexts = append(contexts, c)
		}

		sort.Strings(contexts)
		out[line] = contexts
	}

	return out
}
