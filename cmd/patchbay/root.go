package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchbay-io/patchbay/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "patchbay",
	Short: "Patchbay is a node-graph editor engine",
	Long: `Patchbay manages visual node graphs: nodes, wires, groups and reusable
components, with undo history and pluggable persistence. It serves a JSON
API for canvas frontends and keeps a file library you can put under git.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".patchbay", "Directory holding the project library")
	rootCmd.PersistentFlags().String("redis", "", "Redis URL for shared project storage (redis://host:port)")
	rootCmd.PersistentFlags().Bool("ephemeral", false, "Keep projects in memory only")
	rootCmd.PersistentFlags().Bool("compress", false, "Snappy-compress documents at rest")
	rootCmd.PersistentFlags().String("log-level", "off", "Log verbosity: off, debug, info, warn, error")
}

// storeOptions collects the persistent store flags shared by the commands.
func storeOptions(cmd *cobra.Command) cli.Options {
	dir, _ := cmd.Flags().GetString("dir")
	redisURL, _ := cmd.Flags().GetString("redis")
	ephemeral, _ := cmd.Flags().GetBool("ephemeral")
	compress, _ := cmd.Flags().GetBool("compress")
	level, _ := cmd.Flags().GetString("log-level")
	return cli.Options{
		Dir:       dir,
		RedisURL:  redisURL,
		Ephemeral: ephemeral,
		Compress:  compress,
		LogLevel:  level,
	}
}
