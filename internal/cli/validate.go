package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/patchbay-io/patchbay/internal/validator"
	"github.com/patchbay-io/patchbay/pkg/ports"
)

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	Options
	Paths  []string // document files; empty means the whole library
	Watch  bool
	Strict bool // require every mandatory Extra field
}

// RunValidate checks the given document files, or every project in the
// library when no files are named.
func RunValidate(opts ValidateOptions) error {
	if len(opts.Paths) > 0 {
		return validateFiles(opts.Paths, opts.Strict)
	}

	logger := NewLogger(opts.LogLevel)
	ctx := context.Background()

	backend, err := OpenBackend(ctx, opts.Options, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	return validateLibrary(ctx, backend.Store, opts.Strict)
}

func validateFiles(paths []string, strict bool) error {
	inspect := validator.Parse
	if strict {
		inspect = validator.StrictParse
	}

	failed := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("%s: error: %v\n", path, err)
			failed++
			continue
		}
		report := inspect(data)
		printReport(path, report)
		if !report.Valid() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed validation", failed, len(paths))
	}
	return nil
}

func validateLibrary(ctx context.Context, store ports.ProjectStore, strict bool) error {
	if err := validator.Library(ctx, store, strict); err != nil {
		return err
	}

	// Structurally sound. Surface advisory findings per project.
	ids, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		doc, err := store.Load(ctx, id)
		if err != nil {
			return err
		}
		for _, w := range validator.Document(doc).Warnings {
			fmt.Printf("%s: warning: %s\n", id, w)
		}
	}

	fmt.Printf("Library is valid (%d projects). ✅\n", len(ids))
	return nil
}

func printReport(label string, report *validator.Report) {
	for _, msg := range report.Errors {
		fmt.Printf("%s: error: %s\n", label, msg)
	}
	for _, msg := range report.Warnings {
		fmt.Printf("%s: warning: %s\n", label, msg)
	}
	if report.Clean() {
		fmt.Printf("%s: ok ✅\n", label)
	}
}
