package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	m "skippy.dev/pkg/skippy/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View a saved selection report",
		Long:  "View a selection report previously written by select --save.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			reportPath := m.Path(viper.GetString(reportPathConfigKey))

			return workflow.View(cmd.Context(), reportPath)
		},
	}

	cmd.Flags().String(reportFlagName, viper.GetString(reportPathConfigKey), "report file to display")
	bindFlagToConfig(cmd.Flags().Lookup(reportFlagName), reportPathConfigKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
