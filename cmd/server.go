package cmd

import (
	"tuneshelf/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the TuneShelf HTTP server",
	Long:  `Start the TuneShelf HTTP server, serving the song API and uploaded audio files`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
