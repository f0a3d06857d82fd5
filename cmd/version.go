package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
	m "skippy.dev/pkg/skippy/internal/model"
)

const vcsRevisionSetting = "vcs.revision"

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and report format versions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("report version\t", m.ReportVersion)

			info, ok := debug.ReadBuildInfo()
			if !ok {
				cmd.Println("skippy version\t unknown")
				return
			}

			version := info.Main.Version
			if version == "" {
				version = "unknown"
			}

			cmd.Println("skippy version\t", version)
			cmd.Println("go version\t", info.GoVersion)

			for _, setting := range info.Settings {
				if setting.Key == vcsRevisionSetting {
					cmd.Println("revision\t", setting.Value)
				}
			}
		},
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
