package ports

import (
	"context"

	"github.com/patchbay-io/patchbay/pkg/document"
)

// ProjectStore defines the interface for persisting project documents.
// This is what lets an editor session survive a process restart.
type ProjectStore interface {
	// Save persists the document for a given project ID. Implementations
	// must store a private copy: callers may mutate the document after
	// Save returns.
	Save(ctx context.Context, projectID string, doc *document.GraphDocument) error

	// Load retrieves the document for a given project ID.
	// Returns domain.ErrProjectNotFound if the project does not exist.
	Load(ctx context.Context, projectID string) (*document.GraphDocument, error)

	// Delete removes the document for a given project ID. Deleting a
	// project that does not exist is not an error.
	Delete(ctx context.Context, projectID string) error

	// List returns the IDs of all stored projects.
	List(ctx context.Context) ([]string, error)
}
