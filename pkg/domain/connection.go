package domain

// Connection is a directed edge from an output port to an input port.
// Direction is canonical: SourceNodeID/SourcePort always name the output
// side, TargetNodeID/TargetPort always name the input side, regardless of
// which end the user grabbed first.
type Connection struct {
	ID           string `json:"id" yaml:"id" mapstructure:"id"`
	SourceNodeID string `json:"sourceNodeId" yaml:"sourceNodeId" mapstructure:"sourceNodeId"`
	SourcePort   string `json:"sourcePort" yaml:"sourcePort" mapstructure:"sourcePort"`
	TargetNodeID string `json:"targetNodeId" yaml:"targetNodeId" mapstructure:"targetNodeId"`
	TargetPort   string `json:"targetPort" yaml:"targetPort" mapstructure:"targetPort"`

	// IsDashed renders the wire with a dashed stroke.
	IsDashed bool `json:"isDashed,omitempty" yaml:"isDashed,omitempty" mapstructure:"isDashed"`
	// IsGhost marks a provisional wire shown during a drag preview.
	IsGhost bool `json:"isGhost,omitempty" yaml:"isGhost,omitempty" mapstructure:"isGhost"`
}

// Endpoints returns the source and target port references.
func (c Connection) Endpoints() (source, target PortRef) {
	return PortRef{NodeID: c.SourceNodeID, PortID: c.SourcePort},
		PortRef{NodeID: c.TargetNodeID, PortID: c.TargetPort}
}

// Key returns the endpoint tuple as a single comparable string. Two
// connections with the same key are duplicates whatever their IDs.
func (c Connection) Key() string {
	return c.SourceNodeID + "\x00" + c.SourcePort + "\x00" + c.TargetNodeID + "\x00" + c.TargetPort
}

// Touches reports whether the connection has an endpoint on the given node.
func (c Connection) Touches(nodeID string) bool {
	return c.SourceNodeID == nodeID || c.TargetNodeID == nodeID
}

// CloneConnections copies a connection slice.
func CloneConnections(conns []Connection) []Connection {
	if conns == nil {
		return nil
	}
	out := make([]Connection, len(conns))
	copy(out, conns)
	return out
}
