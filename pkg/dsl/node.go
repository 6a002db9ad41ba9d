package dsl

import "github.com/patchbay-io/patchbay/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

func (n *NodeBuilder) typed(nodeType string) *NodeBuilder {
	n.node.Type = nodeType
	return n
}

// Label sets the display label.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Data.Label = label
	return n
}

// At places the node on the canvas.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Position{X: x, Y: y}
	return n
}

// In declares input ports by id.
func (n *NodeBuilder) In(ids ...string) *NodeBuilder {
	for _, id := range ids {
		n.node.Data.Inputs = append(n.node.Data.Inputs, domain.Port{ID: id})
	}
	return n
}

// Out declares output ports by id.
func (n *NodeBuilder) Out(ids ...string) *NodeBuilder {
	for _, id := range ids {
		n.node.Data.Outputs = append(n.node.Data.Outputs, domain.Port{ID: id})
	}
	return n
}

// Size overrides the node's rendered dimensions.
func (n *NodeBuilder) Size(width, height float64) *NodeBuilder {
	n.node.Data.Width = width
	n.node.Data.Height = height
	return n
}

// Set attaches a free-form data field (the node type's schema applies).
func (n *NodeBuilder) Set(key string, value any) *NodeBuilder {
	if n.node.Data.Extra == nil {
		n.node.Data.Extra = make(map[string]any)
	}
	n.node.Data.Extra[key] = value
	return n
}

// Wire connects this node to a target, continuing on the parent builder.
// The source is "port" on this node; the target is "node:port".
func (n *NodeBuilder) Wire(port, target string) *Builder {
	return n.builder.Wire(n.node.ID+":"+port, target)
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
