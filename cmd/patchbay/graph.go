package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchbay-io/patchbay/internal/cli"
	"github.com/patchbay-io/patchbay/internal/presentation/graph"
	"github.com/patchbay-io/patchbay/pkg/document"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <project|file>",
	Short: "Export a project as a Mermaid diagram",
	Long: `Renders the wiring of a project (or a standalone document file) as a
Mermaid flowchart (graph TD), suitable for READMEs and code review.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := loadDocument(cmd, args[0])
		if err != nil {
			fmt.Printf("Error loading document: %v\n", err)
			os.Exit(1)
		}

		var overlay *graph.Overlay
		selected, _ := cmd.Flags().GetStringSlice("select")
		focused, _ := cmd.Flags().GetString("focus")
		if len(selected) > 0 || focused != "" {
			overlay = &graph.Overlay{Selected: selected, Focused: focused}
		}

		fmt.Print(graph.Generate(doc.Nodes, doc.Connections, overlay))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringSlice("select", nil, "Paint these node ids as selected")
	graphCmd.Flags().String("focus", "", "Paint this node id as focused")
}

// loadDocument resolves a reference: a path to an existing file is
// parsed directly, anything else is treated as a project id in the
// configured store.
func loadDocument(cmd *cobra.Command, ref string) (*document.GraphDocument, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, err
		}
		return document.Parse(data)
	}

	opts := storeOptions(cmd)
	backend, err := cli.OpenBackend(cmd.Context(), opts, cli.NewLogger(opts.LogLevel))
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	return backend.Store.Load(cmd.Context(), ref)
}
