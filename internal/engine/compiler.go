package engine

import (
	"fmt"
	"log/slog"

	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/registry"
)

// Compiler folds a group of nodes into a single opaque component instance,
// publishing the captured subgraph as an immutable definition.
type Compiler struct {
	store   *Store
	reg     *registry.Registry
	catalog *domain.TypeCatalog
	log     *slog.Logger
}

// NewCompiler wires a compiler over the shared store and registry.
func NewCompiler(store *Store, reg *registry.Registry, catalog *domain.TypeCatalog, log *slog.Logger) *Compiler {
	return &Compiler{store: store, reg: reg, catalog: catalog, log: log}
}

// portKey identifies one internal socket during port synthesis. The first
// pass to claim a key wins; later claims reuse the same synthesized port,
// which is how fan-in and fan-out share a boundary port.
type portKey struct {
	nodeID string
	portID string
}

// Compile replaces the group and its members with a component instance.
// The caller brackets the call in a history transaction and restores the
// pre-state if an error comes back.
func (c *Compiler) Compile(groupID string) (*domain.Node, *domain.ComponentDefinition, error) {
	// 1. Resolve the group and its live members.
	group, ok := c.store.Node(groupID)
	if !ok {
		return nil, nil, fmt.Errorf("compile %q: %w", groupID, domain.ErrNodeNotFound)
	}
	if group.Type != domain.NodeTypeGroup {
		return nil, nil, fmt.Errorf("compile %q (type %s): %w", groupID, group.Type, domain.ErrNotAGroup)
	}
	memberSet := make(map[string]bool, len(group.Data.ChildNodeIDs))
	members := make([]*domain.Node, 0, len(group.Data.ChildNodeIDs))
	for _, id := range group.Data.ChildNodeIDs {
		m, ok := c.store.Node(id)
		if !ok {
			c.log.Warn("group member missing, skipped", "group", groupID, "member", id)
			continue
		}
		members = append(members, m)
		memberSet[id] = true
	}
	if len(members) == 0 {
		return nil, nil, fmt.Errorf("compile %q: %w", groupID, domain.ErrEmptyGroup)
	}

	// 2. A member instance whose definition closure is cyclic can never be
	// unfolded again; refuse to bake it in deeper.
	var memberDefs []string
	for _, m := range members {
		if m.Type == domain.NodeTypeComponent && m.Data.ComponentID != "" && c.reg.Contains(m.Data.ComponentID) {
			memberDefs = append(memberDefs, m.Data.ComponentID)
		}
	}
	if len(memberDefs) > 0 {
		if err := c.reg.ValidateAcyclic(memberDefs); err != nil {
			return nil, nil, fmt.Errorf("compile %q: %w", groupID, err)
		}
	}

	// 3. Partition connections into internal and external. Wires attached
	// to the group frame itself dangle once the frame goes away, so they
	// are dropped with the rewrite.
	var internal, external, frameWires []*domain.Connection
	for _, conn := range c.store.Connections() {
		srcIn, dstIn := memberSet[conn.SourceNodeID], memberSet[conn.TargetNodeID]
		switch {
		case srcIn && dstIn:
			internal = append(internal, conn)
		case srcIn || dstIn:
			external = append(external, conn)
		case conn.Touches(groupID):
			frameWires = append(frameWires, conn)
		}
	}

	// 4. Boundary pass: source-like members surface their output sockets
	// as component inputs, sink-like members their input sockets as
	// component outputs.
	syn := newPortSynthesizer()
	for _, m := range members {
		switch c.catalog.Boundary(m.Type) {
		case domain.BoundaryInput:
			for _, p := range m.Data.Outputs {
				syn.addInput(portKey{m.ID, p.ID}, firstNonEmpty(p.Label, m.Data.Label))
			}
		case domain.BoundaryOutput:
			for _, p := range m.Data.Inputs {
				syn.addOutput(portKey{m.ID, p.ID}, firstNonEmpty(p.Label, m.Data.Label))
			}
		}
	}

	// 5. Keyed pass: any external connection whose inside socket is not
	// covered yet gets a synthesized port on the side its direction needs.
	for _, conn := range external {
		if memberSet[conn.TargetNodeID] {
			key := portKey{conn.TargetNodeID, conn.TargetPort}
			syn.addInput(key, c.insideLabel(key))
		} else {
			key := portKey{conn.SourceNodeID, conn.SourcePort}
			syn.addOutput(key, c.insideLabel(key))
		}
	}

	// 6. Capture the definition: deep-copied members, internal connection
	// ids unchanged, the group's position as origin.
	def := &domain.ComponentDefinition{
		ID:             domain.NewPrefixedID("comp"),
		Name:           firstNonEmpty(group.Data.Label, "Component"),
		InputPorts:     syn.inputs,
		OutputPorts:    syn.outputs,
		InputBindings:  syn.inputBindings,
		OutputBindings: syn.outputBindings,
		Origin:         group.Position,
	}
	for _, m := range members {
		def.InternalNodes = append(def.InternalNodes, *m.Clone())
	}
	for _, conn := range internal {
		def.InternalConnections = append(def.InternalConnections, *conn)
	}

	// 7. Rewrite the store: instance in, group and members out, external
	// wires re-terminated on the instance's port stubs.
	instance := c.store.AddNode(domain.Node{
		Type:     domain.NodeTypeComponent,
		Position: group.Position,
		Data: domain.NodeData{
			Label:       def.Name,
			Inputs:      domain.ClonePorts(def.InputPorts),
			Outputs:     domain.ClonePorts(def.OutputPorts),
			Width:       group.Data.Width,
			Height:      group.Data.Height,
			ComponentID: def.ID,
		},
	})
	for _, conn := range external {
		var err error
		if memberSet[conn.TargetNodeID] {
			portID := syn.byKey[portKey{conn.TargetNodeID, conn.TargetPort}]
			err = c.store.RewireConnection(conn.ID, conn.SourceNodeID, conn.SourcePort, instance.ID, portID)
		} else {
			portID := syn.byKey[portKey{conn.SourceNodeID, conn.SourcePort}]
			err = c.store.RewireConnection(conn.ID, instance.ID, portID, conn.TargetNodeID, conn.TargetPort)
		}
		if err != nil {
			// Parallel wires collapsing onto one boundary tuple.
			c.log.Warn("external wire dropped during fold", "connection", conn.ID, "err", err)
			c.store.RemoveConnection(conn.ID)
		}
	}
	for _, conn := range internal {
		c.store.RemoveConnection(conn.ID)
	}
	for _, conn := range frameWires {
		c.log.Warn("wire attached to group frame dropped", "connection", conn.ID, "group", groupID)
		c.store.RemoveConnection(conn.ID)
	}
	for _, m := range members {
		c.store.RemoveNode(m.ID)
	}
	c.store.RemoveNode(groupID)

	if err := c.reg.Publish(def); err != nil {
		return nil, nil, fmt.Errorf("compile %q: %w", groupID, err)
	}

	c.log.Debug("group folded into component",
		"group", groupID,
		"instance", instance.ID,
		"definition", def.ID,
		"inputs", len(def.InputPorts),
		"outputs", len(def.OutputPorts),
	)
	return instance, def, nil
}

// insideLabel names a keyed-pass port: the internal port's own label, or
// its raw id when unlabeled.
func (c *Compiler) insideLabel(key portKey) string {
	if p, _, err := c.store.ResolvePort(key.nodeID, key.portID); err == nil && p.Label != "" {
		return p.Label
	}
	return key.portID
}

// portSynthesizer accumulates boundary ports and bindings. Ids run in-0,
// in-1, … and out-0, out-1, … sequentially across both passes.
type portSynthesizer struct {
	inputs, outputs               []domain.Port
	inputBindings, outputBindings []domain.PortBinding
	byKey                         map[portKey]string
}

func newPortSynthesizer() *portSynthesizer {
	return &portSynthesizer{byKey: make(map[portKey]string)}
}

func (s *portSynthesizer) addInput(key portKey, label string) {
	if _, claimed := s.byKey[key]; claimed {
		return
	}
	id := fmt.Sprintf("in-%d", len(s.inputs))
	if label == "" {
		label = fmt.Sprintf("Input %d", len(s.inputs)+1)
	}
	s.inputs = append(s.inputs, domain.Port{ID: id, Label: label})
	s.inputBindings = append(s.inputBindings, domain.PortBinding{ComponentPortID: id, NodeID: key.nodeID, PortID: key.portID})
	s.byKey[key] = id
}

func (s *portSynthesizer) addOutput(key portKey, label string) {
	if _, claimed := s.byKey[key]; claimed {
		return
	}
	id := fmt.Sprintf("out-%d", len(s.outputs))
	if label == "" {
		label = fmt.Sprintf("Output %d", len(s.outputs)+1)
	}
	s.outputs = append(s.outputs, domain.Port{ID: id, Label: label})
	s.outputBindings = append(s.outputBindings, domain.PortBinding{ComponentPortID: id, NodeID: key.nodeID, PortID: key.portID})
	s.byKey[key] = id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
