package middleware_test

import (
	"context"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware. It keeps
// the documents it was handed, so tests can inspect exactly what the
// middleware let through.
type MockStore struct {
	data map[string]*document.GraphDocument
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*document.GraphDocument),
	}
}

func (s *MockStore) Save(ctx context.Context, projectID string, doc *document.GraphDocument) error {
	s.data[projectID] = doc
	return nil
}

func (s *MockStore) Load(ctx context.Context, projectID string) (*document.GraphDocument, error) {
	doc, ok := s.data[projectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return doc, nil
}

func (s *MockStore) Delete(ctx context.Context, projectID string) error {
	delete(s.data, projectID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.ProjectStore = (*MockStore)(nil)
