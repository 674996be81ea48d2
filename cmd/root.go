package cmd

import (
	"fmt"
	"os"

	"tuneshelf/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tuneshelf",
	Short: "TuneShelf is a personal music library service.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
