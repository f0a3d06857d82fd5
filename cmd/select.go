package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"skippy.dev/pkg/skippy/internal/domain"
	m "skippy.dev/pkg/skippy/internal/model"
)

// selectCmd represents the select command.
var selectCmd = newSelectCmd()

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Print the tests affected by a change",
		Long:  selectLongDescription,
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindSelectFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			result, err := workflow.Select(cmd.Context(), selectArgsFromConfig(cmd))
			if err != nil {
				return err
			}

			if len(result.IDs) == 0 && viper.GetBool(failOnEmptyConfigKey) {
				return &ExitError{Code: exitNoTestsMatched, Err: errNoTestsSelected}
			}

			return nil
		},
	}

	configureSelectFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(selectCmd)
}

// configureSelectFlags declares the flags shared by select and filter.
// Binding to viper happens in bindSelectFlags, once the command that runs
// is known, since both commands feed the same config keys.
func configureSelectFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP(diffFlagName, "d", viper.GetString(diffConfigKey), "diff file or git revision to compare HEAD against (default: the default branch)")
	flags.StringP(coverageFileFlagName, "c", viper.GetString(coverageFileConfigKey), "coverage.py data file (.coverage database or JSON report)")
	flags.StringArrayP(relativeToFlagName, "r", viper.GetStringSlice(relativeToConfigKey), "keep only tests under this root (can be repeated)")
	flags.Bool(keepPrefixFlagName, viper.GetBool(keepPrefixConfigKey), "keep the --relative-to root in printed test IDs")
	flags.Bool(stripPrefixFlagName, false, "print test IDs relative to the --relative-to root (single root only)")
	flags.IntP(parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of parallel discovery workers (0: one per CPU)")
	flags.StringSlice(extensionFlagName, viper.GetStringSlice(extensionsConfigKey), "source file extensions to consider")
	flags.Bool(failOnEmptyFlagName, viper.GetBool(failOnEmptyConfigKey), "exit with code 5 when no tests are selected")
	flags.Bool(summaryFlagName, false, "print a per-file summary table to stderr")
	flags.String(saveFlagName, "", "save a selection report to this file")
	flags.Lookup(saveFlagName).NoOptDefVal = viper.GetString(reportPathConfigKey)

	cmd.MarkFlagsMutuallyExclusive(keepPrefixFlagName, stripPrefixFlagName)
}

func bindSelectFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	bindFlagToConfig(flags.Lookup(diffFlagName), diffConfigKey)
	bindFlagToConfig(flags.Lookup(coverageFileFlagName), coverageFileConfigKey)
	bindFlagToConfig(flags.Lookup(relativeToFlagName), relativeToConfigKey)
	bindFlagToConfig(flags.Lookup(keepPrefixFlagName), keepPrefixConfigKey)
	bindFlagToConfig(flags.Lookup(parallelFlagName), parallelConfigKey)
	bindFlagToConfig(flags.Lookup(extensionFlagName), extensionsConfigKey)
	bindFlagToConfig(flags.Lookup(failOnEmptyFlagName), failOnEmptyConfigKey)
}

func selectArgsFromConfig(cmd *cobra.Command) domain.SelectArgs {
	flags := cmd.Flags()

	summary, err := flags.GetBool(summaryFlagName)
	cobra.CheckErr(err)

	save, err := flags.GetString(saveFlagName)
	cobra.CheckErr(err)

	return domain.SelectArgs{
		Diff:         viper.GetString(diffConfigKey),
		CoverageFile: m.Path(viper.GetString(coverageFileConfigKey)),
		RelativeTo:   parsePaths(viper.GetStringSlice(relativeToConfigKey)),
		KeepPrefix:   resolveKeepPrefix(cmd),
		Threads:      viper.GetInt(parallelConfigKey),
		Extensions:   viper.GetStringSlice(extensionsConfigKey),
		Summary:      summary,
		SavePath:     m.Path(save),
	}
}

// resolveKeepPrefix lets --strip-prefix override the configured keep_prefix.
func resolveKeepPrefix(cmd *cobra.Command) bool {
	strip, err := cmd.Flags().GetBool(stripPrefixFlagName)
	if err != nil {
		cobra.CheckErr(fmt.Errorf("read --%s: %w", stripPrefixFlagName, err))
	}

	if strip {
		return false
	}

	return viper.GetBool(keepPrefixConfigKey)
}
