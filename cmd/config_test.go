package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "skippy", configBaseName)
	assert.Equal(t, "skippy.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "diff", diffFlagName)
	assert.Equal(t, "coverage-file", coverageFileFlagName)
	assert.Equal(t, "relative-to", relativeToFlagName)
	assert.Equal(t, "select.keep_prefix", keepPrefixConfigKey)
	assert.Equal(t, ".coverage", defaultCoverageFile)
	assert.True(t, defaultKeepPrefix)
	assert.Equal(t, []string{".py"}, defaultExtensions)
	assert.Equal(t, "SKIPPY", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}

func TestConfigureLogger_VerboseMirrorsToStderr(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	logPath := filepath.Join(t.TempDir(), "skippy.log")
	stderr := &bytes.Buffer{}

	configureLogger(logPath, true, stderr)
	slog.Debug("hello from test", "key", "value")

	assert.Contains(t, stderr.String(), "hello from test")
	assert.Contains(t, stderr.String(), "key=value")

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "hello from test")
}

func TestConfigureLogger_QuietKeepsStderrClean(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	logPath := filepath.Join(t.TempDir(), "skippy.log")
	stderr := &bytes.Buffer{}

	configureLogger(logPath, false, stderr)
	slog.Debug("not at info level")
	slog.Info("written to file only")

	assert.Empty(t, stderr.String())

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(contents), "not at info level")
	assert.Contains(t, string(contents), "written to file only")
}
