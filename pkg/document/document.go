package document

import (
	"github.com/patchbay-io/patchbay/pkg/domain"
)

// GraphDocument is a self-contained project file: the full graph state
// plus every component definition it references.
type GraphDocument struct {
	Name        string                       `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Nodes       []domain.Node                `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Connections []domain.Connection          `json:"connections" yaml:"connections" mapstructure:"connections"`
	Definitions []domain.ComponentDefinition `json:"definitions,omitempty" yaml:"definitions,omitempty" mapstructure:"definitions"`
}

// New returns an empty named document.
func New(name string) *GraphDocument {
	return &GraphDocument{Name: name}
}

// Clone returns a deep copy. Adapters hand documents across goroutine
// boundaries, so aliasing the original's slices is never safe.
func (d *GraphDocument) Clone() *GraphDocument {
	if d == nil {
		return nil
	}
	out := &GraphDocument{
		Name:        d.Name,
		Nodes:       domain.CloneNodes(d.Nodes),
		Connections: domain.CloneConnections(d.Connections),
	}
	if d.Definitions != nil {
		out.Definitions = make([]domain.ComponentDefinition, len(d.Definitions))
		for i := range d.Definitions {
			out.Definitions[i] = *d.Definitions[i].Clone()
		}
	}
	return out
}

// IsEmpty reports whether the document carries no graph content at all.
func (d *GraphDocument) IsEmpty() bool {
	return d == nil || (len(d.Nodes) == 0 && len(d.Connections) == 0 && len(d.Definitions) == 0)
}

// Node returns the node with the given id, if present.
func (d *GraphDocument) Node(id string) (*domain.Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// Definition returns the component definition with the given id, if present.
func (d *GraphDocument) Definition(id string) (*domain.ComponentDefinition, bool) {
	for i := range d.Definitions {
		if d.Definitions[i].ID == id {
			return &d.Definitions[i], true
		}
	}
	return nil, false
}
