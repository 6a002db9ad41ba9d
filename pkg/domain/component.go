package domain

// PortBinding maps one boundary port of a component to the internal port it
// stands in for.
type PortBinding struct {
	ComponentPortID string `json:"componentPortId" yaml:"componentPortId" mapstructure:"componentPortId"`
	NodeID          string `json:"nodeId" yaml:"nodeId" mapstructure:"nodeId"`
	PortID          string `json:"portId" yaml:"portId" mapstructure:"portId"`
}

// ComponentDefinition is a reusable subgraph captured behind a boundary of
// synthesized ports. Definitions are immutable once published; instances
// reference them by ID through NodeData.ComponentID.
type ComponentDefinition struct {
	ID   string `json:"id" yaml:"id" mapstructure:"id"`
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// InputPorts and OutputPorts form the external boundary.
	InputPorts  []Port `json:"inputPorts" yaml:"inputPorts" mapstructure:"inputPorts"`
	OutputPorts []Port `json:"outputPorts" yaml:"outputPorts" mapstructure:"outputPorts"`

	// InternalNodes and InternalConnections are the captured subgraph,
	// positioned relative to Origin.
	InternalNodes       []Node       `json:"internalNodes" yaml:"internalNodes" mapstructure:"internalNodes"`
	InternalConnections []Connection `json:"internalConnections" yaml:"internalConnections" mapstructure:"internalConnections"`

	// InputBindings and OutputBindings map boundary ports to internal ports.
	InputBindings  []PortBinding `json:"inputBindings" yaml:"inputBindings" mapstructure:"inputBindings"`
	OutputBindings []PortBinding `json:"outputBindings" yaml:"outputBindings" mapstructure:"outputBindings"`

	// Origin is the reference point the internal layout was captured at,
	// used to re-anchor nodes when the component is expanded.
	Origin Position `json:"origin" yaml:"origin" mapstructure:"origin"`
}

// Clone returns a deep copy of the definition.
func (d *ComponentDefinition) Clone() *ComponentDefinition {
	if d == nil {
		return nil
	}
	c := *d
	c.InputPorts = ClonePorts(d.InputPorts)
	c.OutputPorts = ClonePorts(d.OutputPorts)
	c.InternalNodes = CloneNodes(d.InternalNodes)
	c.InternalConnections = CloneConnections(d.InternalConnections)
	c.InputBindings = cloneBindings(d.InputBindings)
	c.OutputBindings = cloneBindings(d.OutputBindings)
	return &c
}

// InputBinding resolves the binding for a boundary input port.
func (d *ComponentDefinition) InputBinding(portID string) (PortBinding, bool) {
	return findBinding(d.InputBindings, portID)
}

// OutputBinding resolves the binding for a boundary output port.
func (d *ComponentDefinition) OutputBinding(portID string) (PortBinding, bool) {
	return findBinding(d.OutputBindings, portID)
}

// DependsOn reports whether any internal node is an instance of the given
// definition. It only inspects the immediate members; transitive closure is
// the registry's job.
func (d *ComponentDefinition) DependsOn(definitionID string) bool {
	for _, n := range d.InternalNodes {
		if n.Type == NodeTypeComponent && n.Data.ComponentID == definitionID {
			return true
		}
	}
	return false
}

func findBinding(bindings []PortBinding, portID string) (PortBinding, bool) {
	for _, b := range bindings {
		if b.ComponentPortID == portID {
			return b, true
		}
	}
	return PortBinding{}, false
}

func cloneBindings(bindings []PortBinding) []PortBinding {
	if bindings == nil {
		return nil
	}
	out := make([]PortBinding, len(bindings))
	copy(out, bindings)
	return out
}
