package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skippy.dev/pkg/skippy/internal/adapter"
)

// chdirTemp moves the test into a fresh directory and points the pytest
// configuration lookup at it.
func chdirTemp(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	originalWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(originalWD)) })

	originalConfig := pytestConfig
	pytestConfig = adapter.NewLocalPytestConfig(adapter.NewLocalSourceFSAdapter(), "")
	t.Cleanup(func() { pytestConfig = originalConfig })

	return dir
}

func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.AddCommand(newInitCmd())
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"init"}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func TestInitCmd_WritesConfigFile(t *testing.T) {
	dir := chdirTemp(t)

	out, err := runInit(t)
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dir, configFileName))
	require.NoError(t, err)

	assert.Contains(t, string(contents), "coverage_file")
	assert.Contains(t, out, "wrote "+configFileName)
}

func TestInitCmd_ReportsPytestConfig(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pytest.ini"), []byte("[pytest]\npython_files = check_*.py\n"), 0o644))

	out, err := runInit(t)
	require.NoError(t, err)

	assert.Contains(t, out, "pytest.ini")
}

func TestInitCmd_ErrorsWhenFileExists(t *testing.T) {
	dir := chdirTemp(t)
	targetPath := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(targetPath, []byte("existing: true\n"), 0o644))

	_, err := runInit(t)
	require.Error(t, err)

	contents, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Equal(t, "existing: true\n", string(contents))
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	dir := chdirTemp(t)
	targetPath := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(targetPath, []byte("existing: true\n"), 0o644))

	_, err := runInit(t, "--force")
	require.NoError(t, err)

	contents, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.NotEqual(t, "existing: true\n", string(contents))
}
