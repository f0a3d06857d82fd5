package adapter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// TestRunnerAdapter asks pytest which tests it would collect.
type TestRunnerAdapter interface {
	// CollectTests runs pytest collection in workDir and returns the node IDs,
	// one per collected item.
	CollectTests(ctx context.Context, workDir string, args ...string) ([]string, error)
}

// LocalTestRunnerAdapter runs `python -m pytest --collect-only -q` with os/exec.
type LocalTestRunnerAdapter struct {
	python  string
	timeout time.Duration
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter using python
// as the interpreter, with a default 2 minute timeout.
func NewLocalTestRunnerAdapter(python string) *LocalTestRunnerAdapter {
	if python == "" {
		python = "python"
	}

	return &LocalTestRunnerAdapter{
		python:  python,
		timeout: 2 * time.Minute,
	}
}

// CollectTests runs pytest collection and parses its quiet output.
func (a *LocalTestRunnerAdapter) CollectTests(ctx context.Context, workDir string, args ...string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmdArgs := append([]string{"-m", "pytest", "--collect-only", "-q"}, args...)

	// #nosec G204 - the interpreter is configured by the user
	cmd := exec.CommandContext(ctx, a.python, cmdArgs...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pytest collection failed: %w: %s", err, strings.TrimSpace(stdout.String()+stderr.String()))
	}

	return ParseCollectedIDs(&stdout)
}

// ParseCollectedIDs reads test IDs, one per line. Lines without "::" are
// skipped, which drops blank lines and the summary pytest prints.
func ParseCollectedIDs(r io.Reader) ([]string, error) {
	var ids []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "::") {
			ids = append(ids, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read collected tests: %w", err)
	}

	return ids, nil
}
