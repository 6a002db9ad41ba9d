package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patchbay-io/patchbay/internal/cli"
	"github.com/patchbay-io/patchbay/pkg/document"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage stored projects",
	Long:  `List, remove, export and import the project documents in the configured store.`,
}

var projectLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all projects",
	Run: func(cmd *cobra.Command, args []string) {
		backend := openBackend(cmd)
		defer backend.Close()

		projects, err := backend.Store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing projects: %v\n", err)
			os.Exit(1)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return
		}

		fmt.Println("Projects:")
		for _, p := range projects {
			fmt.Println("- " + p)
		}
	},
}

var projectRmCmd = &cobra.Command{
	Use:   "rm <project>...",
	Short: "Remove one or more projects",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		backend := openBackend(cmd)
		defer backend.Close()

		hasError := false
		for _, projectID := range args {
			if err := backend.Store.Delete(cmd.Context(), projectID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", projectID, err)
				hasError = true
			} else {
				fmt.Printf("Removed project '%s'\n", projectID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

var projectExportCmd = &cobra.Command{
	Use:   "export <project> [file]",
	Short: "Write a project document to a file or stdout",
	Long: `Exports a stored project. The encoding follows the file extension
(.yaml/.yml for YAML, anything else JSON); without a file argument the
document is printed to stdout as YAML.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		backend := openBackend(cmd)
		defer backend.Close()

		doc, err := backend.Store.Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading project '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		format := document.FormatYAML
		path := ""
		if len(args) == 2 {
			path = args[1]
			format = document.FormatForPath(path)
		}

		data, err := document.Marshal(doc, format)
		if err != nil {
			fmt.Printf("Error encoding project: %v\n", err)
			os.Exit(1)
		}

		if path == "" {
			fmt.Print(string(data))
			return
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			fmt.Printf("Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Exported '%s' to %s\n", args[0], path)
	},
}

var projectImportCmd = &cobra.Command{
	Use:   "import <file> [project]",
	Short: "Load a document file into the store",
	Long: `Imports a JSON or YAML document as a project. The project id defaults
to the document's name, then to the file name.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", args[0], err)
			os.Exit(1)
		}
		doc, err := document.Parse(data)
		if err != nil {
			fmt.Printf("Error parsing %s: %v\n", args[0], err)
			os.Exit(1)
		}

		projectID := doc.Name
		if len(args) == 2 {
			projectID = args[1]
		}
		if projectID == "" {
			base := filepath.Base(args[0])
			projectID = strings.TrimSuffix(base, filepath.Ext(base))
		}

		backend := openBackend(cmd)
		defer backend.Close()

		if err := backend.Store.Save(cmd.Context(), projectID, doc); err != nil {
			fmt.Printf("Error saving project '%s': %v\n", projectID, err)
			os.Exit(1)
		}
		fmt.Printf("Imported %s as project '%s'\n", args[0], projectID)
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectLsCmd)
	projectCmd.AddCommand(projectRmCmd)
	projectCmd.AddCommand(projectExportCmd)
	projectCmd.AddCommand(projectImportCmd)
}

// openBackend opens the store selected by the persistent flags, exiting
// on failure the way the leaf commands report errors.
func openBackend(cmd *cobra.Command) *cli.Backend {
	opts := storeOptions(cmd)
	backend, err := cli.OpenBackend(cmd.Context(), opts, cli.NewLogger(opts.LogLevel))
	if err != nil {
		fmt.Printf("Error opening store: %v\n", err)
		os.Exit(1)
	}
	return backend
}
