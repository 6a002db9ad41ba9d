package engine

import (
	"fmt"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// Snapshot is a deep copy of the joint graph state. Node and connection
// changes that belong to one logical operation always travel in the same
// snapshot, so undo can never tear them apart.
type Snapshot struct {
	Nodes       []domain.Node       `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
}

// Clone deep-copies the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		Nodes:       domain.CloneNodes(s.Nodes),
		Connections: domain.CloneConnections(s.Connections),
	}
}

// Store is the canonical mutable collection of nodes and connections.
//
// It is pure data plus lookup helpers. Iteration order is insertion order,
// which keeps serialization and port synthesis deterministic. The store does
// no locking; the engine serializes access.
type Store struct {
	nodes     map[string]*domain.Node
	conns     map[string]*domain.Connection
	connByKey map[string]string // endpoint tuple -> connection id

	nodeOrder []string
	connOrder []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		nodes:     make(map[string]*domain.Node),
		conns:     make(map[string]*domain.Connection),
		connByKey: make(map[string]string),
	}
}

// Node returns the live node for an id.
func (s *Store) Node(id string) (*domain.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns all live nodes in insertion order.
func (s *Store) Nodes() []*domain.Node {
	out := make([]*domain.Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, s.nodes[id])
	}
	return out
}

// Connection returns the live connection for an id.
func (s *Store) Connection(id string) (*domain.Connection, bool) {
	c, ok := s.conns[id]
	return c, ok
}

// Connections returns all live connections in insertion order.
func (s *Store) Connections() []*domain.Connection {
	out := make([]*domain.Connection, 0, len(s.connOrder))
	for _, id := range s.connOrder {
		out = append(out, s.conns[id])
	}
	return out
}

// Counts returns the number of nodes and connections.
func (s *Store) Counts() (nodes, connections int) {
	return len(s.nodes), len(s.conns)
}

// AddNode inserts a node and returns the stored copy. This is the single id
// enforcement boundary: an empty or colliding id is regenerated here, never
// scrubbed later.
func (s *Store) AddNode(n domain.Node) *domain.Node {
	for n.ID == "" || s.hasNode(n.ID) {
		n.ID = domain.NewPrefixedID("node")
	}
	stored := n.Clone()
	s.nodes[stored.ID] = stored
	s.nodeOrder = append(s.nodeOrder, stored.ID)
	return stored
}

// RemoveNode deletes a node by id. Connections are not cascaded here; the
// engine removes them in the same transaction.
func (s *Store) RemoveNode(id string) bool {
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	s.nodeOrder = removeID(s.nodeOrder, id)
	return true
}

// AddConnection validates and inserts a connection, returning the stored
// copy. Both endpoints must resolve to declared ports and the endpoint
// tuple must be unique. Roles are deliberately not enforced here: gesture
// code normalizes polarity before it gets this far, while loaded documents
// may legally wire straight into a boundary node's output socket. An empty
// or colliding id is regenerated.
func (s *Store) AddConnection(c domain.Connection) (*domain.Connection, error) {
	if _, _, err := s.ResolvePort(c.SourceNodeID, c.SourcePort); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if _, _, err := s.ResolvePort(c.TargetNodeID, c.TargetPort); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	if s.HasTuple(c.SourceNodeID, c.SourcePort, c.TargetNodeID, c.TargetPort) {
		return nil, domain.ErrDuplicateConnection
	}

	for c.ID == "" || s.hasConnection(c.ID) {
		c.ID = domain.NewPrefixedID("conn")
	}
	stored := c
	s.conns[stored.ID] = &stored
	s.connOrder = append(s.connOrder, stored.ID)
	s.connByKey[stored.Key()] = stored.ID
	return &stored, nil
}

// RemoveConnection deletes a connection by id.
func (s *Store) RemoveConnection(id string) bool {
	c, ok := s.conns[id]
	if !ok {
		return false
	}
	delete(s.connByKey, c.Key())
	delete(s.conns, id)
	s.connOrder = removeID(s.connOrder, id)
	return true
}

// RewireConnection replaces the endpoints of an existing connection in
// place, keeping its id. Fails if the new tuple collides with another
// connection.
func (s *Store) RewireConnection(id, sourceNodeID, sourcePort, targetNodeID, targetPort string) error {
	c, ok := s.conns[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	next := *c
	next.SourceNodeID, next.SourcePort = sourceNodeID, sourcePort
	next.TargetNodeID, next.TargetPort = targetNodeID, targetPort
	if next.Key() == c.Key() {
		return nil
	}
	if _, taken := s.connByKey[next.Key()]; taken {
		return domain.ErrDuplicateConnection
	}
	delete(s.connByKey, c.Key())
	*c = next
	s.connByKey[c.Key()] = id
	return nil
}

// HasTuple reports whether a connection with these exact endpoints exists.
func (s *Store) HasTuple(sourceNodeID, sourcePort, targetNodeID, targetPort string) bool {
	key := domain.Connection{
		SourceNodeID: sourceNodeID, SourcePort: sourcePort,
		TargetNodeID: targetNodeID, TargetPort: targetPort,
	}.Key()
	_, ok := s.connByKey[key]
	return ok
}

// ConnectionsTouching returns all connections with an endpoint on the node,
// in insertion order.
func (s *Store) ConnectionsTouching(nodeID string) []*domain.Connection {
	var out []*domain.Connection
	for _, id := range s.connOrder {
		if c := s.conns[id]; c.Touches(nodeID) {
			out = append(out, c)
		}
	}
	return out
}

// ResolvePort resolves a port by declared list membership on its node.
func (s *Store) ResolvePort(nodeID, portID string) (domain.Port, domain.Role, error) {
	n, ok := s.nodes[nodeID]
	if !ok {
		return domain.Port{}, "", fmt.Errorf("node %q: %w", nodeID, domain.ErrNodeNotFound)
	}
	p, role, ok := n.Port(portID)
	if !ok {
		return domain.Port{}, "", fmt.Errorf("port %q on node %q: %w", portID, nodeID, domain.ErrPortNotFound)
	}
	return p, role, nil
}

// Snapshot deep-copies the whole joint state.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		Nodes:       make([]domain.Node, 0, len(s.nodeOrder)),
		Connections: make([]domain.Connection, 0, len(s.connOrder)),
	}
	for _, id := range s.nodeOrder {
		snap.Nodes = append(snap.Nodes, *s.nodes[id].Clone())
	}
	for _, id := range s.connOrder {
		snap.Connections = append(snap.Connections, *s.conns[id])
	}
	return snap
}

// Restore replaces the whole joint state with a snapshot. The snapshot is
// not retained; the store keeps its own copies.
func (s *Store) Restore(snap *Snapshot) {
	s.nodes = make(map[string]*domain.Node, len(snap.Nodes))
	s.conns = make(map[string]*domain.Connection, len(snap.Connections))
	s.connByKey = make(map[string]string, len(snap.Connections))
	s.nodeOrder = s.nodeOrder[:0]
	s.connOrder = s.connOrder[:0]

	for i := range snap.Nodes {
		n := snap.Nodes[i].Clone()
		if _, dup := s.nodes[n.ID]; dup {
			continue
		}
		s.nodes[n.ID] = n
		s.nodeOrder = append(s.nodeOrder, n.ID)
	}
	for i := range snap.Connections {
		c := snap.Connections[i]
		if _, dup := s.conns[c.ID]; dup {
			continue
		}
		if _, dup := s.connByKey[c.Key()]; dup {
			continue
		}
		s.conns[c.ID] = &c
		s.connOrder = append(s.connOrder, c.ID)
		s.connByKey[c.Key()] = c.ID
	}
}

func (s *Store) hasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

func (s *Store) hasConnection(id string) bool {
	_, ok := s.conns[id]
	return ok
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
