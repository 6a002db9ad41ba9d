package domain

// Position is a point in canvas coordinates. The canvas origin is the
// top-left corner, with Y growing downward.
type Position struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// Add returns the component-wise sum of two positions.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns the component-wise difference of two positions.
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// Node represents a single box on the canvas.
type Node struct {
	ID       string   `json:"id" yaml:"id" mapstructure:"id"`
	Type     string   `json:"type" yaml:"type" mapstructure:"type"` // e.g. "value", "transform", "group", "component"
	Position Position `json:"position" yaml:"position" mapstructure:"position"`
	Data     NodeData `json:"data" yaml:"data" mapstructure:"data"`
}

// NodeData holds the per-node payload: display label, the declared port
// lists, sizing, and the type-specific fields used by groups and component
// instances.
type NodeData struct {
	Label   string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Inputs  []Port `json:"inputs,omitempty" yaml:"inputs,omitempty" mapstructure:"inputs"`
	Outputs []Port `json:"outputs,omitempty" yaml:"outputs,omitempty" mapstructure:"outputs"`

	// Width and Height override the type's default footprint when non-zero.
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty" mapstructure:"width"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty" mapstructure:"height"`

	// ChildNodeIDs lists the members of a group node.
	ChildNodeIDs []string `json:"childNodeIds,omitempty" yaml:"childNodeIds,omitempty" mapstructure:"childNodeIds"`

	// ComponentID links a component instance back to its definition.
	ComponentID string `json:"componentId,omitempty" yaml:"componentId,omitempty" mapstructure:"componentId"`

	// Extra carries type-specific configuration (e.g. a value node's
	// literal, a transform node's expression). Validated by pkg/schema.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty" mapstructure:"extra"`
}

// Clone returns a deep copy of the node. Port and child slices are copied;
// nested values inside Extra are shared, so mutators must replace entries
// rather than edit them in place.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Data.Inputs = ClonePorts(n.Data.Inputs)
	c.Data.Outputs = ClonePorts(n.Data.Outputs)
	if n.Data.ChildNodeIDs != nil {
		c.Data.ChildNodeIDs = make([]string, len(n.Data.ChildNodeIDs))
		copy(c.Data.ChildNodeIDs, n.Data.ChildNodeIDs)
	}
	if n.Data.Extra != nil {
		c.Data.Extra = make(map[string]any, len(n.Data.Extra))
		for k, v := range n.Data.Extra {
			c.Data.Extra[k] = v
		}
	}
	return &c
}

// Port looks up a declared port by ID and reports the role implied by the
// list it was found in. Inputs are searched first.
func (n *Node) Port(portID string) (Port, Role, bool) {
	for _, p := range n.Data.Inputs {
		if p.ID == portID {
			return p, RoleInput, true
		}
	}
	for _, p := range n.Data.Outputs {
		if p.ID == portID {
			return p, RoleOutput, true
		}
	}
	return Port{}, "", false
}

// CloneNodes deep-copies a node slice.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i := range nodes {
		out[i] = *nodes[i].Clone()
	}
	return out
}
