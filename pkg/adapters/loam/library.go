// Package loam stores each project as a Markdown file with YAML
// frontmatter, via the Loam document repository. The graph lives in the
// frontmatter; the body is a short generated summary. The resulting
// library directory is human-diffable and plays well with git.
package loam

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

// Library implements ports.ProjectStore on a directory of Loam documents.
type Library struct {
	dir  string
	repo *loam.TypedRepository[document.GraphDocument]
}

// NewLibrary opens (or creates) a project library in dir. Versioning is
// off: the library is pure file generation, and most users keep the
// directory under their own git anyway.
func NewLibrary(dir string) (*Library, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid library path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return &Library{
		dir:  absPath,
		repo: loam.NewTypedRepository[document.GraphDocument](repo),
	}, nil
}

// Dir returns the library's root directory.
func (l *Library) Dir() string {
	return l.dir
}

// Save writes the project as <id>.md with the graph in frontmatter.
func (l *Library) Save(ctx context.Context, projectID string, doc *document.GraphDocument) error {
	if doc == nil {
		return fmt.Errorf("loam save failed for %s: document is nil", projectID)
	}

	err := l.repo.Save(ctx, &loam.DocumentModel[document.GraphDocument]{
		ID:      projectID,
		Content: summarize(doc),
		Data:    *doc.Clone(),
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", projectID, err)
	}
	return nil
}

// Load reads the project back from its file.
func (l *Library) Load(ctx context.Context, projectID string) (*document.GraphDocument, error) {
	// Loam reports lookup misses with backend-specific errors, so check
	// for the file ourselves to keep the not-found contract exact.
	if _, err := os.Stat(l.path(projectID)); errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrProjectNotFound
	}

	model, err := l.repo.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", projectID, err)
	}

	doc := model.Data
	return &doc, nil
}

// Delete removes the project file. Missing files are fine.
func (l *Library) Delete(ctx context.Context, projectID string) error {
	err := os.Remove(l.path(projectID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loam delete failed for %s: %w", projectID, err)
	}
	return nil
}

// List returns the project IDs in the library, sorted.
func (l *Library) List(ctx context.Context) ([]string, error) {
	docs, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, trimExtension(d.ID))
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch reports the IDs of projects whose files change on disk. The
// channel closes when ctx is cancelled.
func (l *Library) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.repo.Watch(ctx, "**/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				// Loam debounces bursts itself; pass the changed ID up,
				// respecting context cancellation.
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func (l *Library) path(projectID string) string {
	return filepath.Join(l.dir, projectID+".md")
}

// summarize renders the generated body so the file says something useful
// when opened in an editor or a git diff.
func summarize(doc *document.GraphDocument) string {
	title := doc.Name
	if title == "" {
		title = "Untitled project"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%d nodes, %d connections, %d component definitions.\n",
		len(doc.Nodes), len(doc.Connections), len(doc.Definitions))
	b.WriteString("\nGenerated by Patchbay; the graph itself lives in the frontmatter.\n")
	return b.String()
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
