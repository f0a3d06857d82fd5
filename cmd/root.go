// Package cmd provides the root command and CLI setup for skippy.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"skippy.dev/pkg/skippy/internal/adapter"
	"skippy.dev/pkg/skippy/internal/controller"
	"skippy.dev/pkg/skippy/internal/domain"
	m "skippy.dev/pkg/skippy/internal/model"
)

var pyFileAdapter adapter.PythonFileAdapter
var fsAdapter adapter.SourceFSAdapter
var gitAdapter adapter.GitAdapter
var reportStore adapter.ReportStore
var testAdapter adapter.TestRunnerAdapter
var pytestConfig adapter.PytestConfigAdapter
var workflow domain.Workflow
var ui controller.UI

// debugFlag raises the log level to Debug and mirrors the log on stderr.
var debugFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	pyFileAdapter = adapter.NewLocalPythonFileAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	gitAdapter = adapter.NewLocalGitAdapter()
	reportStore = adapter.NewLocalReportStore()
	testAdapter = adapter.NewLocalTestRunnerAdapter(viper.GetString(pythonConfigKey))
	pytestConfig = adapter.NewLocalPytestConfig(fsAdapter, "")
	workflow = domain.NewWorkflow(
		fsAdapter,
		gitAdapter,
		reportStore,
		testAdapter,
		pyFileAdapter,
		pytestConfig,
		ui,
	)
}

const diffSourceHelp = `The diff comes from --diff, which is either a file holding a unified diff
or a git revision. For a revision the change set is the one
"git diff REV...HEAD" shows. Without --diff the default branch is used.`

const rootLongDescription = `Skippy selects the pytest tests affected by a change. It combines a
unified diff with the per-test contexts that pytest-cov records
(pytest --cov --cov-context=test) and with the tests defined in changed
test files, and prints the test IDs that need to run.

` + diffSourceHelp

const selectLongDescription = `Select the tests affected by a change and print their IDs.

` + diffSourceHelp

const filterLongDescription = `Select the tests affected by a change and keep only those pytest
actually collects. Collected IDs are read one per line from --from
(a file, or - for stdin), or gathered by running pytest with --collect.

` + diffSourceHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skippy",
		Short: "Coverage-based test selection for pytest",
		Long:  rootLongDescription,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey), cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&debugFlag, debugFlagName, viper.GetBool(logVerboseKey), "enable debug logging on stderr")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(debugFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

// ExitError carries the process exit code for an outcome that is not a
// plain failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

const (
	exitFailure        = 1
	exitNoTestsMatched = 5
)

var errNoTestsSelected = errors.New("couldn't find any tests to run")

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return exitFailure
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
