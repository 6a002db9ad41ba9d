package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchbay-io/patchbay/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor API server",
	Long: `Starts the Patchbay HTTP server: project CRUD, graph editing endpoints
and a server-sent-events stream of mutations, backed by the library at
--dir (or Redis with --redis, or nothing at all with --ephemeral).`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.ServeOptions{Options: storeOptions(cmd)}
		opts.Port, _ = cmd.Flags().GetString("port")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")

		if err := cli.RunServe(opts); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().BoolP("quiet", "q", false, "Skip the banner")
}
