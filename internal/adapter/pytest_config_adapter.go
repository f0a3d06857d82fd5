package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-ini/ini"
	"github.com/pelletier/go-toml/v2"
	m "skippy.dev/pkg/skippy/internal/model"
)

const (
	pytestIni     = "pytest.ini"
	dotPytestIni  = ".pytest.ini"
	pyprojectToml = "pyproject.toml"
	toxIni        = "tox.ini"
	setupCfg      = "setup.cfg"
)

// pytestConfigFiles lists the files pytest consults, highest precedence first.
var pytestConfigFiles = []string{pytestIni, dotPytestIni, pyprojectToml, toxIni, setupCfg}

// PytestConfigAdapter exposes the ini options of the pytest configuration in
// effect for a directory.
type PytestConfigAdapter interface {
	// Value returns the raw value of an ini option. ok is false when no
	// configuration was found or the option is not set.
	Value(ctx context.Context, key string) (value string, ok bool, err error)

	// ConfigFile returns the configuration file in effect, or "" if none.
	ConfigFile(ctx context.Context) (m.Path, error)

	// Reset drops the cached configuration so the next lookup rediscovers it.
	Reset()
}

// LocalPytestConfig discovers the pytest configuration lazily, on first use,
// by searching startDir and then its parents. Each instance caches its own
// result.
type LocalPytestConfig struct {
	fs       SourceFSAdapter
	startDir m.Path

	mu     sync.Mutex
	loaded bool
	file   m.Path
	values map[string]string
}

// NewLocalPytestConfig creates a LocalPytestConfig rooted at startDir. An
// empty startDir means the working directory.
func NewLocalPytestConfig(fs SourceFSAdapter, startDir m.Path) *LocalPytestConfig {
	return &LocalPytestConfig{fs: fs, startDir: startDir}
}

// Value returns the raw value of key.
func (c *LocalPytestConfig) Value(ctx context.Context, key string) (string, bool, error) {
	if err := c.load(ctx); err != nil {
		return "", false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.values[key]

	return v, ok, nil
}

// ConfigFile returns the discovered configuration file.
func (c *LocalPytestConfig) ConfigFile(ctx context.Context) (m.Path, error) {
	if err := c.load(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.file, nil
}

// Reset clears the cached configuration.
func (c *LocalPytestConfig) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded = false
	c.file = ""
	c.values = nil
}

func (c *LocalPytestConfig) load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}

	file, values, err := c.discover(ctx)
	if err != nil {
		return err
	}

	c.loaded = true
	c.file = file
	c.values = values

	if file == "" {
		slog.Debug("No pytest configuration found", "start", c.startDir)
	} else {
		slog.Debug("Using pytest configuration", "file", file, "keys", len(values))
	}

	return nil
}

func (c *LocalPytestConfig) discover(ctx context.Context) (m.Path, map[string]string, error) {
	start := c.startDir
	if start == "" {
		wd, err := c.fs.Getwd(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("get working directory: %w", err)
		}

		start = wd
	}

	dir, err := filepath.Abs(string(start))
	if err != nil {
		return "", nil, fmt.Errorf("resolve %s: %w", start, err)
	}

	for {
		nearest, err := c.fs.FindUp(ctx, m.Path(dir), pytestConfigFiles...)
		if errors.Is(err, ErrNotFound) {
			return "", map[string]string{}, nil
		}

		if err != nil {
			return "", nil, err
		}

		level := filepath.Dir(string(nearest))

		path, values, err := c.configAt(ctx, level)
		if err != nil || path != "" {
			return path, values, err
		}

		parent := filepath.Dir(level)
		if parent == level {
			return "", map[string]string{}, nil
		}

		dir = parent
	}
}

// configAt checks the config files in dir in precedence order and returns
// the first one that configures pytest, or "" when none does.
func (c *LocalPytestConfig) configAt(ctx context.Context, dir string) (m.Path, map[string]string, error) {
	for _, name := range pytestConfigFiles {
		path := c.fs.JoinPath(ctx, dir, name)

		info, err := c.fs.FileInfo(ctx, path)
		if err != nil || info.IsDir() {
			continue
		}

		data, err := c.fs.ReadFile(ctx, path)
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", path, err)
		}

		values, ok, err := parsePytestConfig(name, data)
		if err != nil {
			return "", nil, fmt.Errorf("parse %s: %w", path, err)
		}

		if ok {
			return path, values, nil
		}
	}

	return "", nil, nil
}

// parsePytestConfig extracts the pytest section from a config file. ok is
// false when the file does not configure pytest and the search should go on.
func parsePytestConfig(name string, data []byte) (map[string]string, bool, error) {
	switch name {
	case pytestIni, dotPytestIni:
		values, _, err := parseIniSection(data, "pytest")
		return values, true, err
	case toxIni:
		return parseIniSection(data, "pytest")
	case setupCfg:
		return parseIniSection(data, "tool:pytest")
	case pyprojectToml:
		return parsePyproject(data)
	}

	return nil, false, nil
}

func parseIniSection(data []byte, section string) (map[string]string, bool, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		PreserveSurroundedQuote:    true,
		SpaceBeforeInlineComment:   true,
	}, data)
	if err != nil {
		return nil, false, err
	}

	sec, err := cfg.GetSection(section)
	if err != nil {
		return map[string]string{}, false, nil
	}

	values := make(map[string]string, len(sec.Keys()))
	for _, key := range sec.Keys() {
		values[key.Name()] = strings.TrimSpace(key.Value())
	}

	return values, true, nil
}

type pyproject struct {
	Tool struct {
		Pytest struct {
			IniOptions map[string]any `toml:"ini_options"`
		} `toml:"pytest"`
	} `toml:"tool"`
}

func parsePyproject(data []byte) (map[string]string, bool, error) {
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, false, err
	}

	options := doc.Tool.Pytest.IniOptions
	if options == nil {
		return map[string]string{}, false, nil
	}

	values := make(map[string]string, len(options))
	for key, raw := range options {
		values[key] = tomlValueString(raw)
	}

	return values, true, nil
}

func tomlValueString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, tomlValueString(item))
		}

		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}
