package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/dsl"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [project]",
	Short: "Create a starter project",
	Long: `Seeds the store with a small example patch (a value node wired through
a transform into a display) so a fresh canvas has something to show.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := "hello-patch"
		if len(args) > 0 {
			name = args[0]
		}

		opts := storeOptions(cmd)
		if opts.Ephemeral {
			fmt.Println("Error: init needs a persistent store; an ephemeral project would be lost on exit.")
			os.Exit(1)
		}

		target := opts.Dir
		if opts.RedisURL != "" {
			target = opts.RedisURL
		}
		fmt.Printf("Generating starter project in: %s\n", target)

		doc, err := starterDocument(name)
		if err != nil {
			fmt.Printf("Error building starter project: %v\n", err)
			os.Exit(1)
		}

		backend := openBackend(cmd)
		defer backend.Close()

		force, _ := cmd.Flags().GetBool("force")
		if _, err := backend.Store.Load(cmd.Context(), name); err == nil && !force {
			fmt.Printf("Project '%s' already exists. Use --force to overwrite it.\n", name)
			os.Exit(1)
		}

		if err := backend.Store.Save(cmd.Context(), name, doc); err != nil {
			fmt.Printf("Error saving project '%s': %v\n", name, err)
			os.Exit(1)
		}

		fmt.Printf("Done. Run 'patchbay serve' and open project '%s'.\n", name)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite an existing project of the same name")
}

// starterDocument builds the seed patch: 440 doubled is 880, displayed
// as a number. Enough to demonstrate wiring without overwhelming a new
// canvas.
func starterDocument(name string) (*document.GraphDocument, error) {
	b := dsl.New(name)

	b.Value("freq").
		Label("Frequency").
		At(40, 80).
		Out("out").
		Set("value", 440)

	b.Transform("double").
		Label("Double").
		At(300, 80).
		In("in").
		Out("out").
		Set("expression", "x * 2")

	b.Display("readout").
		Label("Readout").
		At(560, 80).
		In("in").
		Set("format", "number")

	b.Wire("freq:out", "double:in").
		Wire("double:out", "readout:in")

	return b.Build()
}
