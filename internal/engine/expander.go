package engine

import (
	"fmt"
	"log/slog"

	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/registry"
)

// Expander unfolds a component instance back into its internal nodes,
// wrapped in a synthesized group. Inverse of the Compiler, up to node
// identity: restored nodes get fresh ids whenever the old ones are taken.
type Expander struct {
	store   *Store
	reg     *registry.Registry
	catalog *domain.TypeCatalog
	log     *slog.Logger
}

// NewExpander wires an expander over the shared store and registry.
func NewExpander(store *Store, reg *registry.Registry, catalog *domain.TypeCatalog, log *slog.Logger) *Expander {
	return &Expander{store: store, reg: reg, catalog: catalog, log: log}
}

// Expand replaces the instance with the definition's subgraph. The caller
// brackets the call in a history transaction and restores the pre-state if
// an error comes back.
func (e *Expander) Expand(instanceID string) (*domain.Node, []*domain.Node, error) {
	// 1. Resolve the instance and its definition. The registry hands out a
	// deep copy, so everything below may mutate freely.
	inst, ok := e.store.Node(instanceID)
	if !ok {
		return nil, nil, fmt.Errorf("expand %q: %w", instanceID, domain.ErrNodeNotFound)
	}
	if inst.Type != domain.NodeTypeComponent || inst.Data.ComponentID == "" {
		return nil, nil, fmt.Errorf("expand %q (type %s): %w", instanceID, inst.Type, domain.ErrNotAComponent)
	}
	def, err := e.reg.Resolve(inst.Data.ComponentID)
	if err != nil {
		return nil, nil, fmt.Errorf("expand %q: %w", instanceID, err)
	}

	// 2. Precompute the id map for this call. The same definition may be
	// live elsewhere, so any colliding internal id gets a fresh one.
	idMap := make(map[string]string, len(def.InternalNodes))
	taken := make(map[string]bool, len(def.InternalNodes))
	for _, n := range def.InternalNodes {
		id := n.ID
		for {
			if _, live := e.store.Node(id); !live && !taken[id] {
				break
			}
			id = domain.NewPrefixedID("node")
		}
		idMap[n.ID] = id
		taken[id] = true
	}

	// 3. Restore the internal nodes, translated so the layout lands where
	// the instance sat.
	delta := inst.Position.Sub(def.Origin)
	restored := make([]*domain.Node, 0, len(def.InternalNodes))
	for i := range def.InternalNodes {
		n := def.InternalNodes[i].Clone()
		n.ID = idMap[def.InternalNodes[i].ID]
		n.Position = n.Position.Add(delta)
		// Nested group frames captured inside the definition point at
		// internal ids too.
		for j, child := range n.Data.ChildNodeIDs {
			if mapped, ok := idMap[child]; ok {
				n.Data.ChildNodeIDs[j] = mapped
			}
		}
		restored = append(restored, e.store.AddNode(*n))
	}

	// 4. Recreate internal connections through the id map, fresh ids.
	for _, c := range def.InternalConnections {
		src, srcOK := idMap[c.SourceNodeID]
		dst, dstOK := idMap[c.TargetNodeID]
		if !srcOK || !dstOK {
			e.log.Warn("internal wire references node outside definition, dropped",
				"definition", def.ID, "connection", c.ID)
			continue
		}
		if _, err := e.store.AddConnection(domain.Connection{
			SourceNodeID: src,
			SourcePort:   c.SourcePort,
			TargetNodeID: dst,
			TargetPort:   c.TargetPort,
			IsDashed:     c.IsDashed,
			IsGhost:      c.IsGhost,
		}); err != nil {
			e.log.Warn("internal wire could not be restored", "definition", def.ID, "err", err)
		}
	}

	// 5. Rebind every live wire touching the instance to the restored
	// endpoint its binding names. No binding means the wire has nowhere to
	// land; it is dropped rather than left dangling.
	for _, conn := range e.store.ConnectionsTouching(instanceID) {
		src, srcPort := conn.SourceNodeID, conn.SourcePort
		dst, dstPort := conn.TargetNodeID, conn.TargetPort
		bound := true
		if src == instanceID {
			if nodeID, portID, ok := e.rebind(def, idMap, srcPort); ok {
				src, srcPort = nodeID, portID
			} else {
				bound = false
			}
		}
		if dst == instanceID {
			if nodeID, portID, ok := e.rebind(def, idMap, dstPort); ok {
				dst, dstPort = nodeID, portID
			} else {
				bound = false
			}
		}
		if !bound {
			e.log.Warn("wire without binding dropped during unfold", "connection", conn.ID, "definition", def.ID)
			e.store.RemoveConnection(conn.ID)
			continue
		}
		if err := e.store.RewireConnection(conn.ID, src, srcPort, dst, dstPort); err != nil {
			e.log.Warn("wire could not be rebound during unfold", "connection", conn.ID, "err", err)
			e.store.RemoveConnection(conn.ID)
		}
	}

	// 6. Wrap the restored nodes in a synthesized group frame sized to
	// their bounding box.
	group := e.store.AddNode(e.groupFrame(inst, def, restored, idMap))

	// 7. Finally drop the instance itself. Unrelated graph content is
	// untouched.
	e.store.RemoveNode(instanceID)

	e.log.Debug("component unfolded",
		"instance", instanceID,
		"definition", def.ID,
		"group", group.ID,
		"restored", len(restored),
	)
	return group, restored, nil
}

// rebind resolves a component port id to its restored internal endpoint.
// Port ids are disjoint across the two binding lists, so both are searched.
func (e *Expander) rebind(def *domain.ComponentDefinition, idMap map[string]string, portID string) (string, string, bool) {
	b, ok := def.InputBinding(portID)
	if !ok {
		b, ok = def.OutputBinding(portID)
	}
	if !ok {
		return "", "", false
	}
	nodeID, ok := idMap[b.NodeID]
	if !ok {
		return "", "", false
	}
	return nodeID, b.PortID, true
}

// groupFrame builds the enclosing group node: AABB over the restored nodes
// using per-type default sizes, plus padding and a header allowance.
func (e *Expander) groupFrame(inst *domain.Node, def *domain.ComponentDefinition, restored []*domain.Node, idMap map[string]string) domain.Node {
	children := make([]string, 0, len(def.InternalNodes))
	for _, n := range def.InternalNodes {
		children = append(children, idMap[n.ID])
	}

	frame := domain.Node{
		ID:       domain.NewPrefixedID("group"),
		Type:     domain.NodeTypeGroup,
		Position: inst.Position,
		Data: domain.NodeData{
			Label:        def.Name,
			ChildNodeIDs: children,
		},
	}
	if len(restored) == 0 {
		info := e.catalog.Info(domain.NodeTypeGroup)
		frame.Data.Width, frame.Data.Height = info.DefaultWidth, info.DefaultHeight
		return frame
	}

	topLeft, w, h := boundsOver(e.catalog, restored)
	frame.Position = domain.Position{
		X: topLeft.X - domain.GroupPadding,
		Y: topLeft.Y - domain.GroupPadding - domain.GroupHeaderHeight,
	}
	frame.Data.Width = w + 2*domain.GroupPadding
	frame.Data.Height = h + 2*domain.GroupPadding + domain.GroupHeaderHeight
	return frame
}
