package document

import (
	"errors"
	"fmt"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// Issue is a single structural problem found in a document.
type Issue struct {
	Path   string // where in the document, e.g. "connections[3]"
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Reason)
}

// ValidationError aggregates every structural problem in a document so a
// caller can surface them all at once instead of fixing one per attempt.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid document: " + e.Issues[0].String()
	}
	msg := fmt.Sprintf("invalid document: %d problems:\n", len(e.Issues))
	for n, issue := range e.Issues {
		msg += fmt.Sprintf("  %d. %s\n", n+1, issue.String())
	}
	return msg
}

// Issues returns the individual problems if err wraps a ValidationError,
// otherwise nil.
func Issues(err error) []Issue {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Issues
	}
	return nil
}

// Validate checks the document's referential integrity: ids are unique,
// connection endpoints resolve to declared ports, group membership and
// component references point at things that exist. Port roles are not
// checked; documents may legally wire into a boundary node's outward
// socket, and the editor normalizes roles on interactive wiring anyway.
func (d *GraphDocument) Validate() error {
	var issues []Issue
	report := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Reason: fmt.Sprintf(format, args...)})
	}

	// 1. Nodes: ids present and unique.
	nodeByID := make(map[string]*domain.Node, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		path := fmt.Sprintf("nodes[%d]", i)
		if n.ID == "" {
			report(path, "node is missing an id")
			continue
		}
		if _, dup := nodeByID[n.ID]; dup {
			report(path, "duplicate node id %q", n.ID)
			continue
		}
		nodeByID[n.ID] = n
	}

	// 2. Group membership resolves.
	for i := range d.Nodes {
		n := &d.Nodes[i]
		for _, child := range n.Data.ChildNodeIDs {
			if _, ok := nodeByID[child]; !ok {
				report(fmt.Sprintf("nodes[%d]", i), "group %q lists unknown child %q", n.ID, child)
			}
		}
	}

	// 3. Component instances reference embedded definitions.
	defByID := make(map[string]*domain.ComponentDefinition, len(d.Definitions))
	for i := range d.Definitions {
		def := &d.Definitions[i]
		path := fmt.Sprintf("definitions[%d]", i)
		if def.ID == "" {
			report(path, "definition is missing an id")
			continue
		}
		if _, dup := defByID[def.ID]; dup {
			report(path, "duplicate definition id %q", def.ID)
			continue
		}
		defByID[def.ID] = def
	}
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.Data.ComponentID == "" {
			continue
		}
		if _, ok := defByID[n.Data.ComponentID]; !ok {
			report(fmt.Sprintf("nodes[%d]", i), "node %q references unknown definition %q", n.ID, n.Data.ComponentID)
		}
	}

	// 4. Connections: unique ids, unique endpoint tuples, resolvable ports.
	connIDs := make(map[string]struct{}, len(d.Connections))
	tuples := make(map[string]int, len(d.Connections))
	for i := range d.Connections {
		c := &d.Connections[i]
		path := fmt.Sprintf("connections[%d]", i)
		if c.ID == "" {
			report(path, "connection is missing an id")
		} else if _, dup := connIDs[c.ID]; dup {
			report(path, "duplicate connection id %q", c.ID)
		} else {
			connIDs[c.ID] = struct{}{}
		}
		if first, dup := tuples[c.Key()]; dup {
			report(path, "duplicates the endpoints of connections[%d]", first)
		} else {
			tuples[c.Key()] = i
		}
		checkEndpoint(report, path, "source", nodeByID, c.SourceNodeID, c.SourcePort)
		checkEndpoint(report, path, "target", nodeByID, c.TargetNodeID, c.TargetPort)
	}

	// 5. Definitions: internal graphs and bindings are self-consistent.
	for i := range d.Definitions {
		validateDefinition(report, fmt.Sprintf("definitions[%d]", i), &d.Definitions[i])
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

func checkEndpoint(report func(string, string, ...any), path, side string, nodes map[string]*domain.Node, nodeID, portID string) {
	n, ok := nodes[nodeID]
	if !ok {
		report(path, "%s references unknown node %q", side, nodeID)
		return
	}
	if _, _, ok := n.Port(portID); !ok {
		report(path, "%s references unknown port %q on node %q", side, portID, nodeID)
	}
}

func validateDefinition(report func(string, string, ...any), path string, def *domain.ComponentDefinition) {
	memberByID := make(map[string]*domain.Node, len(def.InternalNodes))
	for i := range def.InternalNodes {
		m := &def.InternalNodes[i]
		if m.ID == "" {
			report(path, "internal node [%d] is missing an id", i)
			continue
		}
		if _, dup := memberByID[m.ID]; dup {
			report(path, "duplicate internal node id %q", m.ID)
			continue
		}
		memberByID[m.ID] = m
	}
	for i := range def.InternalConnections {
		c := &def.InternalConnections[i]
		sub := fmt.Sprintf("%s.internalConnections[%d]", path, i)
		checkEndpoint(report, sub, "source", memberByID, c.SourceNodeID, c.SourcePort)
		checkEndpoint(report, sub, "target", memberByID, c.TargetNodeID, c.TargetPort)
	}

	declared := make(map[string]struct{}, len(def.InputPorts)+len(def.OutputPorts))
	for _, p := range def.InputPorts {
		declared[p.ID] = struct{}{}
	}
	for _, p := range def.OutputPorts {
		declared[p.ID] = struct{}{}
	}
	checkBindings(report, path, "inputBindings", def.InputBindings, declared, memberByID)
	checkBindings(report, path, "outputBindings", def.OutputBindings, declared, memberByID)
}

func checkBindings(report func(string, string, ...any), path, field string, bindings []domain.PortBinding, declared map[string]struct{}, members map[string]*domain.Node) {
	for i, b := range bindings {
		sub := fmt.Sprintf("%s.%s[%d]", path, field, i)
		if _, ok := declared[b.ComponentPortID]; !ok {
			report(sub, "binds undeclared component port %q", b.ComponentPortID)
		}
		m, ok := members[b.NodeID]
		if !ok {
			report(sub, "binds unknown internal node %q", b.NodeID)
			continue
		}
		if _, _, ok := m.Port(b.PortID); !ok {
			report(sub, "binds unknown port %q on internal node %q", b.PortID, b.NodeID)
		}
	}
}
