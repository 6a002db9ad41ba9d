package dsl

import (
	"fmt"
	"strings"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

// Builder manages the document construction.
type Builder struct {
	name        string
	nodes       map[string]*NodeBuilder
	order       []string
	connections []domain.Connection
	definitions []domain.ComponentDefinition
	errs        []error
	connSeq     int
}

// New creates a new document builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the document.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID:   id,
			Type: domain.NodeTypeValue,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Input adds a boundary input node.
func (b *Builder) Input(id string) *NodeBuilder {
	return b.Add(id).typed(domain.NodeTypeInput)
}

// Output adds a boundary output node.
func (b *Builder) Output(id string) *NodeBuilder {
	return b.Add(id).typed(domain.NodeTypeOutput)
}

// Value adds a literal source node.
func (b *Builder) Value(id string) *NodeBuilder {
	return b.Add(id).typed(domain.NodeTypeValue)
}

// Transform adds a transform node.
func (b *Builder) Transform(id string) *NodeBuilder {
	return b.Add(id).typed(domain.NodeTypeTransform)
}

// Merge adds a merge node.
func (b *Builder) Merge(id string) *NodeBuilder {
	return b.Add(id).typed(domain.NodeTypeMerge)
}

// Display adds a display sink node.
func (b *Builder) Display(id string) *NodeBuilder {
	return b.Add(id).typed(domain.NodeTypeDisplay)
}

// Group adds a group node claiming the given children.
func (b *Builder) Group(id string, childIDs ...string) *NodeBuilder {
	nb := b.Add(id).typed(domain.NodeTypeGroup)
	nb.node.Data.ChildNodeIDs = append(nb.node.Data.ChildNodeIDs, childIDs...)
	return nb
}

// Component adds an instance of an embedded component definition.
func (b *Builder) Component(id, definitionID string) *NodeBuilder {
	nb := b.Add(id).typed(domain.NodeTypeComponent)
	nb.node.Data.ComponentID = definitionID
	return nb
}

// Wire connects two ports. Endpoints are "node:port" references; the
// connection id is generated in sequence (c1, c2, ...).
func (b *Builder) Wire(source, target string) *Builder {
	return b.wire(source, target, false)
}

// WireDashed connects two ports with a dashed wire.
func (b *Builder) WireDashed(source, target string) *Builder {
	return b.wire(source, target, true)
}

func (b *Builder) wire(source, target string, dashed bool) *Builder {
	srcNode, srcPort, err := splitRef(source)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("wire source: %w", err))
		return b
	}
	tgtNode, tgtPort, err := splitRef(target)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("wire target: %w", err))
		return b
	}

	b.connSeq++
	b.connections = append(b.connections, domain.Connection{
		ID:           fmt.Sprintf("c%d", b.connSeq),
		SourceNodeID: srcNode,
		SourcePort:   srcPort,
		TargetNodeID: tgtNode,
		TargetPort:   tgtPort,
		IsDashed:     dashed,
	})
	return b
}

// AddDefinition embeds a component definition in the document.
func (b *Builder) AddDefinition(def domain.ComponentDefinition) *Builder {
	b.definitions = append(b.definitions, def)
	return b
}

// Build compiles the document and validates it. Nodes appear in the
// order they were added, so output is deterministic.
func (b *Builder) Build() (*document.GraphDocument, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	doc := document.New(b.name)
	doc.Nodes = make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		doc.Nodes = append(doc.Nodes, b.nodes[id].node)
	}
	doc.Connections = append(doc.Connections, b.connections...)
	doc.Definitions = append(doc.Definitions, b.definitions...)

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}
	return doc, nil
}

func splitRef(ref string) (nodeID, portID string, err error) {
	node, port, ok := strings.Cut(ref, ":")
	if !ok || node == "" || port == "" {
		return "", "", fmt.Errorf("reference %q is not node:port", ref)
	}
	return node, port, nil
}
