package domain

// Role identifies which side of a node a port lives on.
type Role string

const (
	// RoleInput marks a port that accepts incoming connections.
	RoleInput Role = "input"
	// RoleOutput marks a port that originates outgoing connections.
	RoleOutput Role = "output"
)

// Opposite returns the complementary role.
func (r Role) Opposite() Role {
	if r == RoleInput {
		return RoleOutput
	}
	return RoleInput
}

// Port is a named connection socket on a node.
//
// A port carries no role of its own. Its role is determined solely by which
// list it is declared in (NodeData.Inputs or NodeData.Outputs); naming
// conventions in the ID or label are never consulted.
type Port struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// PortRef addresses one port on one node.
type PortRef struct {
	NodeID string `json:"nodeId" yaml:"nodeId" mapstructure:"nodeId"`
	PortID string `json:"portId" yaml:"portId" mapstructure:"portId"`
}

// ClonePorts returns a deep copy of a port slice. A nil slice stays nil.
func ClonePorts(ports []Port) []Port {
	if ports == nil {
		return nil
	}
	out := make([]Port, len(ports))
	copy(out, ports)
	return out
}
