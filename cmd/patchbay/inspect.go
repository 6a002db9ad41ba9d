package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchbay-io/patchbay/internal/presentation/tui"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <project|file>",
	Short: "Show a rendered overview of a project",
	Long: `Prints a formatted summary of a project document: its nodes, wires and
component definitions. Use --raw for plain markdown (useful for piping).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := loadDocument(cmd, args[0])
		if err != nil {
			fmt.Printf("Error loading document: %v\n", err)
			os.Exit(1)
		}

		markdown := tui.Summary(doc)

		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			fmt.Print(markdown)
			return
		}

		render := tui.NewRenderer()
		out, err := render(markdown)
		if err != nil {
			// Fall back to plain markdown rather than failing the command.
			fmt.Print(markdown)
			return
		}
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().Bool("raw", false, "Print plain markdown without terminal styling")
}
