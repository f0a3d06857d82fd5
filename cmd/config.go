package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "skippy"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	diffFlagName         = "diff"
	coverageFileFlagName = "coverage-file"
	relativeToFlagName   = "relative-to"
	keepPrefixFlagName   = "keep-prefix"
	stripPrefixFlagName  = "strip-prefix"
	parallelFlagName     = "parallel"
	extensionFlagName    = "extension"
	failOnEmptyFlagName  = "fail-on-empty"
	summaryFlagName      = "summary"
	saveFlagName         = "save"
	reportFlagName       = "report"
	fromFlagName         = "from"
	collectFlagName      = "collect"
	debugFlagName        = "debug"

	diffConfigKey         = "select.diff"
	coverageFileConfigKey = "select.coverage_file"
	relativeToConfigKey   = "select.relative_to"
	keepPrefixConfigKey   = "select.keep_prefix"
	parallelConfigKey     = "select.parallel"
	extensionsConfigKey   = "select.extensions"
	failOnEmptyConfigKey  = "select.fail_on_empty"
	reportPathConfigKey   = "report.path"
	pythonConfigKey       = "collect.python"

	defaultCoverageFile = ".coverage"
	defaultKeepPrefix   = true
	defaultParallel     = 0
	defaultFailOnEmpty  = false
	defaultReportPath   = ".skippy/report.yaml"
	defaultPython       = "python"

	envPrefix = "SKIPPY"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".skippy.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var defaultExtensions = []string{".py"}

var globalLogger *slog.Logger

// configDefaults seeds every key skippy reads, so config files and SKIPPY_*
// environment variables can override any of them.
func configDefaults() map[string]any {
	return map[string]any{
		configVersionKey:      currentConfigVersion,
		diffConfigKey:         "",
		coverageFileConfigKey: defaultCoverageFile,
		relativeToConfigKey:   []string{},
		keepPrefixConfigKey:   defaultKeepPrefix,
		parallelConfigKey:     defaultParallel,
		extensionsConfigKey:   defaultExtensions,
		failOnEmptyConfigKey:  defaultFailOnEmpty,
		reportPathConfigKey:   defaultReportPath,
		pythonConfigKey:       defaultPython,

		logFilenameKey:   defaultLogFilename,
		logLevelKey:      defaultLogLevel,
		logVerboseKey:    defaultLogVerbose,
		logMaxSizeKey:    defaultLogMaxSize,
		logMaxBackupsKey: defaultLogMaxBackups,
		logMaxAgeKey:     defaultLogMaxAge,
		logCompressKey:   defaultLogCompress,
	}
}

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	for key, value := range configDefaults() {
		viper.SetDefault(key, value)
	}

	configLoadErr = loadConfigFile()
}

// configLoadErr is reported once the logger exists.
var configLoadErr error

// loadConfigFile reads skippy.yaml when present. A missing file is not an
// error.
func loadConfigFile() error {
	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("read %s: %w", configFileName, err)
}

// parseSlogLevel maps a configured level name or number onto a slog level.
func parseSlogLevel(value string, fallback slog.Level) slog.Level {
	name := strings.ToLower(strings.TrimSpace(value))

	switch name {
	case "":
		return fallback
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	if n, err := strconv.Atoi(name); err == nil {
		return slog.Level(n)
	}

	return fallback
}

func rotatingLogWriter(logPath string) io.Writer {
	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}
}

// configureLogger installs the global slog logger.
//
// Records always go to the rotating log file. With --debug the level drops
// to Debug and records are mirrored on stderr.
func configureLogger(logPath string, debug bool, stderr io.Writer) {
	for _, candidate := range []string{logPath, viper.GetString(logFilenameKey), defaultLogFilename} {
		if strings.TrimSpace(candidate) != "" {
			logPath = candidate
			break
		}
	}

	level := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	writer := rotatingLogWriter(logPath)

	if debug {
		level = slog.LevelDebug
		if stderr != nil {
			writer = io.MultiWriter(writer, stderr)
		}
	}

	globalLogger = slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
	slog.SetDefault(globalLogger)

	if configLoadErr != nil {
		globalLogger.Warn("ignoring config file", "error", configLoadErr)
	}
}
