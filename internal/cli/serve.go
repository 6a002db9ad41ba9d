package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/patchbay-io/patchbay/internal/presentation/tui"
	httpadapter "github.com/patchbay-io/patchbay/pkg/adapters/http"
	"github.com/patchbay-io/patchbay/pkg/observability"
)

const shutdownGrace = 5 * time.Second

// ServeOptions configures the API server command.
type ServeOptions struct {
	Options
	Port  string
	Quiet bool
}

// RunServe starts the editor API and blocks until a signal arrives or
// the listener fails.
func RunServe(opts ServeOptions) error {
	logger := NewLogger(opts.LogLevel)

	if !opts.Quiet {
		tui.PrintBanner()
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	backend, err := OpenBackend(sigCtx, opts.Options, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	serverOpts := []httpadapter.Option{
		httpadapter.WithLogger(logger),
		httpadapter.WithMetrics(observability.NewMetrics()),
	}
	if backend.Locker != nil {
		serverOpts = append(serverOpts, httpadapter.WithLocker(backend.Locker))
	}
	api := httpadapter.NewServer(backend.Store, serverOpts...)

	srv := &http.Server{
		Addr:    ":" + opts.Port,
		Handler: api.Handler(),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		printSystemMessage("Patchbay API listening on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		printSystemMessage("Shutting down (%v)...", sigCtx.Signal())

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			if cerr := srv.Close(); cerr != nil {
				logger.Error("forced close failed", "error", cerr)
			}
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownGrace, err)
		}
		printSystemMessage("Server stopped gracefully.")
		return nil
	}
}
