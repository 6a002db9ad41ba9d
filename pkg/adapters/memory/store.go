// Package memory provides in-process implementations of the persistence
// ports: a ProjectStore backed by a map and a single-instance
// DistributedLocker. Both are intended for tests, examples, and
// single-binary deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

// Store implements ports.ProjectStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*document.GraphDocument
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*document.GraphDocument),
	}
}

// Save persists the document in memory. A deep copy is stored so the
// caller keeps ownership of the original, mirroring what serialization
// does for the durable adapters.
func (s *Store) Save(ctx context.Context, projectID string, doc *document.GraphDocument) error {
	copied := doc.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[projectID] = copied
	return nil
}

// Load retrieves the document from memory.
func (s *Store) Load(ctx context.Context, projectID string) (*document.GraphDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[projectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}

	// Copy on read so the caller can't reach stored state by pointer.
	return doc.Clone(), nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, projectID)
	return nil
}

// List returns stored project IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]string, 0, len(s.data))
	for id := range s.data {
		projects = append(projects, id)
	}
	sort.Strings(projects)
	return projects, nil
}
