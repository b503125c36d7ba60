package commands

import (
	"github.com/spf13/cobra"
)

// Execute runs the vishwaexpo command line.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vishwaexpo",
		Short: "VishwaExpo - minimal HTTP framework server",
		Long: `VishwaExpo serves an application built from routes, middleware and
cookie sessions. This CLI runs the configured server and inspects its routes.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRoutesCmd())

	return rootCmd
}
