package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchbay-io/patchbay/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check documents for consistency",
	Long: `Validates project documents: referential integrity errors (dangling
wires, unknown ports, broken component references) plus advisory lint
findings. With file arguments it checks those documents; without, it
sweeps every project in the library.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.ValidateOptions{Options: storeOptions(cmd), Paths: args}
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Strict, _ = cmd.Flags().GetBool("strict")

		run := cli.RunValidate
		if opts.Watch {
			if len(args) > 0 {
				fmt.Println("Error: --watch sweeps the library and cannot take file arguments.")
				os.Exit(1)
			}
			run = cli.RunValidateWatch
		}

		if err := run(opts); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolP("watch", "w", false, "Revalidate the library whenever a project file changes")
	validateCmd.Flags().Bool("strict", false, "Require every mandatory node field, not just well-typed ones")
}
