package cli

import (
	"context"
	"fmt"
	"time"
)

// RunValidateWatch revalidates the library every time a project file
// changes on disk, until a signal stops it.
func RunValidateWatch(opts ValidateOptions) error {
	logger := NewLogger(opts.LogLevel)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	backend, err := OpenBackend(sigCtx, opts.Options, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	if backend.Library == nil {
		return fmt.Errorf("--watch needs the file library; redis and ephemeral stores cannot be watched")
	}

	events, err := backend.Library.Watch(sigCtx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	logger.Info("starting watcher", "dir", backend.Library.Dir())

	sweep := func() {
		if err := validateLibrary(sigCtx, backend.Store, opts.Strict); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
		}
		printSystemMessage("Waiting for changes...")
	}
	sweep()

	for {
		select {
		case <-sigCtx.Done():
			printSystemMessage("Stopping watcher (%v).", sigCtx.Signal())
			return nil
		case id, ok := <-events:
			if !ok {
				return nil
			}
			printSystemMessage("Change detected in '%s'.", id)
			// Let the file system settle before re-reading.
			time.Sleep(100 * time.Millisecond)
			sweep()
		}
	}
}
