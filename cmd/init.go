package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const forceFlagName = "force"

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a skippy.yaml holding the current settings",
		Long: `Write skippy.yaml to the current directory with the settings in effect
(defaults, environment and flags) so they can be edited and committed.
The pytest configuration that decides which files are test files is
reported as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, err := cmd.Flags().GetBool(forceFlagName)
			if err != nil {
				return err
			}

			targetPath := filepath.Join(configFolderPath, configFileName)

			write := viper.SafeWriteConfigAs
			if force {
				write = viper.WriteConfigAs
			}

			if err := write(targetPath); err != nil {
				return fmt.Errorf("write %s (use --%s to overwrite): %w", targetPath, forceFlagName, err)
			}

			cmd.Printf("wrote %s\n", targetPath)

			pytestFile, err := pytestConfig.ConfigFile(cmd.Context())
			switch {
			case err != nil:
				cmd.PrintErrf("could not read the pytest configuration: %v\n", err)
			case pytestFile == "":
				cmd.Println("no pytest configuration found, test files match test_*.py")
			default:
				cmd.Printf("test files are matched with python_files from %s\n", pytestFile)
			}

			return nil
		},
	}

	cmd.Flags().Bool(forceFlagName, false, "overwrite an existing skippy.yaml")

	return cmd
}

func init() {
	rootCmd.AddCommand(initCmd)
}
