package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"skippy.dev/pkg/skippy/internal/adapter"
	"skippy.dev/pkg/skippy/internal/domain"
)

const stdinName = "-"

// filterCmd represents the filter command.
var filterCmd = newFilterCmd()

func newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter [-- pytest args...]",
		Short: "Keep the collected tests affected by a change",
		Long:  filterLongDescription,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindSelectFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			filterArgs, err := filterArgsFromFlags(cmd, args)
			if err != nil {
				return err
			}

			kept, err := workflow.Filter(cmd.Context(), filterArgs)
			if err != nil {
				return err
			}

			if len(kept) == 0 && viper.GetBool(failOnEmptyConfigKey) {
				return &ExitError{Code: exitNoTestsMatched, Err: errNoTestsSelected}
			}

			return nil
		},
	}

	configureSelectFlags(cmd)
	cmd.Flags().String(fromFlagName, "", "file listing collected test IDs, one per line (- for stdin)")
	cmd.Flags().Bool(collectFlagName, false, "run pytest --collect-only to get the collected test IDs")
	cmd.MarkFlagsMutuallyExclusive(fromFlagName, collectFlagName)
	cmd.MarkFlagsOneRequired(fromFlagName, collectFlagName)

	return cmd
}

func init() {
	rootCmd.AddCommand(filterCmd)
}

func filterArgsFromFlags(cmd *cobra.Command, args []string) (domain.FilterArgs, error) {
	from, err := cmd.Flags().GetString(fromFlagName)
	if err != nil {
		return domain.FilterArgs{}, err
	}

	collect, err := cmd.Flags().GetBool(collectFlagName)
	if err != nil {
		return domain.FilterArgs{}, err
	}

	filterArgs := domain.FilterArgs{
		SelectArgs: selectArgsFromConfig(cmd),
		Collect:    collect,
		PytestArgs: args,
	}

	if from == "" {
		return filterArgs, nil
	}

	collected, err := readCollected(cmd.InOrStdin(), from)
	if err != nil {
		return domain.FilterArgs{}, err
	}

	filterArgs.Collected = collected

	return filterArgs, nil
}

func readCollected(stdin io.Reader, from string) ([]string, error) {
	if from == stdinName {
		return adapter.ParseCollectedIDs(stdin)
	}

	// #nosec G304 - the collected IDs file is chosen by the user
	f, err := os.Open(from)
	if err != nil {
		return nil, fmt.Errorf("open collected tests %s: %w", from, err)
	}
	defer f.Close()

	return adapter.ParseCollectedIDs(f)
}
