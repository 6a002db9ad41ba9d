package domain

// Built-in node types.
const (
	// NodeTypeInput feeds data into the graph. Source-like: when a group is
	// folded into a component, its output sockets become component inputs.
	NodeTypeInput = "input"
	// NodeTypeOutput receives final results. Sink-like: when folding, its
	// input sockets become component outputs.
	NodeTypeOutput = "output"
	// NodeTypeValue holds a literal configured in Data.Extra.
	NodeTypeValue = "value"
	// NodeTypeTransform applies an expression to its inputs.
	NodeTypeTransform = "transform"
	// NodeTypeMerge combines any number of inputs; new input slots are
	// appended on demand when a wire lands on it.
	NodeTypeMerge = "merge"
	// NodeTypeDisplay renders whatever arrives at it.
	NodeTypeDisplay = "display"
	// NodeTypeGroup is a visual container over member nodes (ChildNodeIDs).
	NodeTypeGroup = "group"
	// NodeTypeComponent is an opaque instance of a ComponentDefinition.
	NodeTypeComponent = "component"
)

// BoundaryKind classifies how a node type participates in component folding.
type BoundaryKind string

const (
	// BoundaryNone means the type plays no special role at the boundary.
	BoundaryNone BoundaryKind = ""
	// BoundaryInput marks source-like types whose outputs surface as
	// component input ports.
	BoundaryInput BoundaryKind = "input"
	// BoundaryOutput marks sink-like types whose inputs surface as
	// component output ports.
	BoundaryOutput BoundaryKind = "output"
)

// Layout constants for synthesized group frames.
const (
	// GroupPadding is the margin added around members when a group frame is
	// synthesized during component expansion.
	GroupPadding = 40.0
	// GroupHeaderHeight is the extra space reserved above members for the
	// group's title bar.
	GroupHeaderHeight = 36.0
)

// TypeInfo describes the editor-facing traits of a node type.
type TypeInfo struct {
	DefaultWidth  float64
	DefaultHeight float64
	Boundary      BoundaryKind
	// ElasticInputs marks types that grow one fresh input slot every time
	// a wire lands on them, so there is always a spare socket.
	ElasticInputs bool
}

// DefaultTypeInfo is used for node types absent from the catalog.
var DefaultTypeInfo = TypeInfo{DefaultWidth: 180, DefaultHeight: 100}

// TypeCatalog maps node types to their traits. The zero value is unusable;
// construct one with NewTypeCatalog.
type TypeCatalog struct {
	infos map[string]TypeInfo
}

// NewTypeCatalog returns a catalog seeded with the built-in types.
func NewTypeCatalog() *TypeCatalog {
	return &TypeCatalog{infos: map[string]TypeInfo{
		NodeTypeInput:     {DefaultWidth: 180, DefaultHeight: 80, Boundary: BoundaryInput},
		NodeTypeOutput:    {DefaultWidth: 180, DefaultHeight: 80, Boundary: BoundaryOutput},
		NodeTypeValue:     {DefaultWidth: 160, DefaultHeight: 90},
		NodeTypeTransform: {DefaultWidth: 200, DefaultHeight: 120},
		NodeTypeMerge:     {DefaultWidth: 180, DefaultHeight: 110, ElasticInputs: true},
		NodeTypeDisplay:   {DefaultWidth: 220, DefaultHeight: 140},
		NodeTypeGroup:     {DefaultWidth: 240, DefaultHeight: 160},
		NodeTypeComponent: {DefaultWidth: 200, DefaultHeight: 120},
	}}
}

// Register adds or replaces a custom node type.
func (c *TypeCatalog) Register(nodeType string, info TypeInfo) {
	c.infos[nodeType] = info
}

// Info returns the traits for a node type, falling back to DefaultTypeInfo
// for unknown types.
func (c *TypeCatalog) Info(nodeType string) TypeInfo {
	if info, ok := c.infos[nodeType]; ok {
		return info
	}
	return DefaultTypeInfo
}

// Boundary reports the folding role of a node type.
func (c *TypeCatalog) Boundary(nodeType string) BoundaryKind {
	return c.Info(nodeType).Boundary
}

// Size returns the effective footprint of a node: its own Width/Height when
// set, otherwise the type defaults.
func (c *TypeCatalog) Size(n *Node) (w, h float64) {
	info := c.Info(n.Type)
	w, h = info.DefaultWidth, info.DefaultHeight
	if n.Data.Width > 0 {
		w = n.Data.Width
	}
	if n.Data.Height > 0 {
		h = n.Data.Height
	}
	return w, h
}
