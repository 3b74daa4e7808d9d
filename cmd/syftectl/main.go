package main

import (
	"os"

	"github.com/Dune005/syfte/cmd/syftectl/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "syftectl",
		Short:        "Operations tooling for the Syfte API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.VAPIDCmd())
	rootCmd.AddCommand(cmd.NotifyCmd())
	rootCmd.AddCommand(cmd.CleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
