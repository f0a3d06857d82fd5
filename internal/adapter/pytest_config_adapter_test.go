package adapter

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "skippy.dev/pkg/skippy/internal/model"
)

func newTestPytestConfig(dir string) *LocalPytestConfig {
	return NewLocalPytestConfig(NewLocalSourceFSAdapter(), m.Path(dir))
}

func TestLocalPytestConfig_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantFile string
		want     string
	}{
		{
			name: "pytest.ini wins over pyproject.toml",
			files: map[string]string{
				"pytest.ini":     "[pytest]\npython_files = ini_*.py\n",
				"pyproject.toml": "[tool.pytest.ini_options]\npython_files = \"toml_*.py\"\n",
			},
			wantFile: "pytest.ini",
			want:     "ini_*.py",
		},
		{
			name: ".pytest.ini",
			files: map[string]string{
				".pytest.ini": "[pytest]\npython_files = dot_*.py\n",
				"setup.cfg":   "[tool:pytest]\npython_files = cfg_*.py\n",
			},
			wantFile: ".pytest.ini",
			want:     "dot_*.py",
		},
		{
			name: "pyproject.toml array",
			files: map[string]string{
				"pyproject.toml": "[tool.pytest.ini_options]\npython_files = [\"check_*.py\", \"*_check.py\"]\n",
				"tox.ini":        "[pytest]\npython_files = tox_*.py\n",
			},
			wantFile: "pyproject.toml",
			want:     "check_*.py *_check.py",
		},
		{
			name: "pyproject.toml without pytest table is skipped",
			files: map[string]string{
				"pyproject.toml": "[project]\nname = \"demo\"\n",
				"tox.ini":        "[pytest]\npython_files = tox_*.py\n",
			},
			wantFile: "tox.ini",
			want:     "tox_*.py",
		},
		{
			name: "tox.ini without pytest section is skipped",
			files: map[string]string{
				"tox.ini":   "[tox]\nenvlist = py312\n",
				"setup.cfg": "[tool:pytest]\npython_files = cfg_*.py\n",
			},
			wantFile: "setup.cfg",
			want:     "cfg_*.py",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeTestFile(t, filepath.Join(dir, name), content)
			}

			cfg := newTestPytestConfig(dir)
			ctx := context.Background()

			file, err := cfg.ConfigFile(ctx)
			require.NoError(t, err)
			assert.Equal(t, m.Path(filepath.Join(dir, tt.wantFile)), file)

			value, ok, err := cfg.Value(ctx, "python_files")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestLocalPytestConfig_SearchesParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "pkg", "tests")
	mustMkdir(t, nested)
	writeTestFile(t, filepath.Join(root, "pytest.ini"), "[pytest]\npython_files = root_*.py\n")

	value, ok, err := newTestPytestConfig(nested).Value(context.Background(), "python_files")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "root_*.py", value)
}

func TestLocalPytestConfig_SkipsFilesWithoutPytestSection(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantFile string
		want     string
	}{
		{
			name: "later file in the same directory",
			files: map[string]string{
				"pkg/tests/tox.ini":   "[tox]\nenvlist = py312\n",
				"pkg/tests/setup.cfg": "[tool:pytest]\npython_files = cfg_*.py\n",
				"pkg/pytest.ini":      "[pytest]\npython_files = parent_*.py\n",
			},
			wantFile: "pkg/tests/setup.cfg",
			want:     "cfg_*.py",
		},
		{
			name: "parent directory",
			files: map[string]string{
				"pkg/tests/setup.cfg": "[metadata]\nname = demo\n",
				"pyproject.toml":      "[tool.pytest.ini_options]\npython_files = \"toml_*.py\"\n",
			},
			wantFile: "pyproject.toml",
			want:     "toml_*.py",
		},
		{
			name: "no file configures pytest",
			files: map[string]string{
				"pkg/tests/tox.ini": "[tox]\n",
				"pyproject.toml":    "[project]\nname = \"demo\"\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			nested := filepath.Join(root, "pkg", "tests")
			mustMkdir(t, nested)

			for name, content := range tt.files {
				writeTestFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
			}

			cfg := newTestPytestConfig(nested)

			file, err := cfg.ConfigFile(context.Background())
			require.NoError(t, err)

			value, ok, err := cfg.Value(context.Background(), "python_files")
			require.NoError(t, err)

			if tt.wantFile == "" {
				assert.Empty(t, file)
				assert.False(t, ok)

				return
			}

			assert.Equal(t, m.Path(filepath.Join(root, filepath.FromSlash(tt.wantFile))), file)
			assert.True(t, ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestLocalPytestConfig_IniValues(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "pytest.ini"), `[pytest]
addopts = "-q"
python_files =
    test_*.py
    check_*.py
`)

	cfg := newTestPytestConfig(dir)
	ctx := context.Background()

	addopts, ok, err := cfg.Value(ctx, "addopts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"-q"`, addopts)

	files, ok, err := cfg.Value(ctx, "python_files")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"test_*.py", "check_*.py"}, strings.Fields(files))

	_, ok, err = cfg.Value(ctx, "testpaths")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalPytestConfig_EmptyPytestIni(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "pytest.ini"), "")
	writeTestFile(t, filepath.Join(dir, "setup.cfg"), "[tool:pytest]\npython_files = cfg_*.py\n")

	cfg := newTestPytestConfig(dir)

	file, err := cfg.ConfigFile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, m.Path(filepath.Join(dir, "pytest.ini")), file)

	_, ok, err := cfg.Value(context.Background(), "python_files")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalPytestConfig_Reset(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "setup.cfg"), "[tool:pytest]\npython_files = old_*.py\n")

	cfg := newTestPytestConfig(dir)
	ctx := context.Background()

	value, _, err := cfg.Value(ctx, "python_files")
	require.NoError(t, err)
	assert.Equal(t, "old_*.py", value)

	writeTestFile(t, filepath.Join(dir, "pytest.ini"), "[pytest]\npython_files = new_*.py\n")

	value, _, err = cfg.Value(ctx, "python_files")
	require.NoError(t, err)
	assert.Equal(t, "old_*.py", value, "configuration is cached until Reset")

	cfg.Reset()

	value, _, err = cfg.Value(ctx, "python_files")
	require.NoError(t, err)
	assert.Equal(t, "new_*.py", value)
}

func TestLocalPytestConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.pytest.ini_options\n")

	_, _, err := newTestPytestConfig(dir).Value(context.Background(), "python_files")
	assert.Error(t, err)
}
