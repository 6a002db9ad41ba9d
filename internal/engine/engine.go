// Package engine implements the editor core: the canonical graph store, the
// connection gesture state machine, component fold/unfold, and transactional
// undo/redo over joint snapshots.
//
// All mutations run to completion under one engine-level mutex, so every
// operation is snapshot, mutate, notify, atomically with respect to any
// other caller. The engine spawns no goroutines of its own.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patchbay-io/patchbay/internal/logging"
	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/registry"
)

// Config carries the engine's collaborators. Zero-value fields get sane
// defaults from New.
type Config struct {
	Logger       *slog.Logger
	Registry     *registry.Registry
	Catalog      *domain.TypeCatalog
	Hooks        domain.LifecycleHooks
	HistoryLimit int
}

// Engine owns one canvas worth of editor state.
type Engine struct {
	mu sync.Mutex

	store    *Store
	history  *History
	router   *Router
	compiler *Compiler
	expander *Expander

	reg     *registry.Registry
	catalog *domain.TypeCatalog
	hooks   domain.LifecycleHooks
	log     *slog.Logger
}

// New builds an engine from a config.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNop()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.New()
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = domain.NewTypeCatalog()
	}

	store := NewStore()
	e := &Engine{
		store:    store,
		history:  NewHistory(cfg.HistoryLimit),
		router:   NewRouter(store, log),
		compiler: NewCompiler(store, reg, catalog, log),
		expander: NewExpander(store, reg, catalog, log),
		reg:      reg,
		catalog:  catalog,
		hooks:    cfg.Hooks,
		log:      log,
	}
	return e
}

// Registry returns the component registry the engine publishes to.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Catalog returns the node type catalog.
func (e *Engine) Catalog() *domain.TypeCatalog { return e.catalog }

// --- Read surface -----------------------------------------------------------
//
// Readers hand out deep copies while the lock is held. Mutating a returned
// node or connection never touches the graph; changes go through the
// mutating operations below.

// Node returns a copy of the node for an id.
func (e *Engine) Node(id string) (*domain.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.store.Node(id)
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Nodes returns copies of all nodes in insertion order.
func (e *Engine) Nodes() []*domain.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	live := e.store.Nodes()
	out := make([]*domain.Node, len(live))
	for i, n := range live {
		out[i] = n.Clone()
	}
	return out
}

// Connection returns a copy of the connection for an id.
func (e *Engine) Connection(id string) (*domain.Connection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.store.Connection(id)
	if !ok {
		return nil, false
	}
	out := *c
	return &out, true
}

// Connections returns copies of all connections in insertion order.
func (e *Engine) Connections() []*domain.Connection {
	e.mu.Lock()
	defer e.mu.Unlock()
	live := e.store.Connections()
	out := make([]*domain.Connection, len(live))
	for i, c := range live {
		cc := *c
		out[i] = &cc
	}
	return out
}

// Counts returns the node and connection totals.
func (e *Engine) Counts() (nodes, connections int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Counts()
}

// Snapshot deep-copies the whole joint graph state.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

// --- Gestures ---------------------------------------------------------------

// SetView replaces the viewport transform used to convert pointer
// coordinates into canvas space.
func (e *Engine) SetView(v ViewTransform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router.SetView(v)
}

// View returns the current viewport transform.
func (e *Engine) View() ViewTransform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.View()
}

// StartConnection begins a connection drag from a declared port.
func (e *Engine) StartConnection(nodeID, portID string, pointer domain.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.Start(nodeID, portID, pointer)
}

// UpdateDrag moves the live drag pointer. A no-op when idle.
func (e *Engine) UpdateDrag(pointer domain.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router.DragTo(pointer)
}

// DragState returns a copy of the live drag, or nil when idle.
func (e *Engine) DragState() *DragState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.Active()
}

// CancelConnection discards the live drag without touching the graph. The
// pointer-release-over-empty-canvas path lands here too.
func (e *Engine) CancelConnection() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.Cancel()
}

// CompleteConnection lands the live drag on a port. Rejections (unknown
// endpoint, same role, duplicate) return an error without mutating
// anything; the caller decides whether to surface it, the engine only logs
// at debug level.
func (e *Engine) CompleteConnection(targetNodeID, targetPortID string) (*domain.Connection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cand, err := e.router.Complete(targetNodeID, targetPortID)
	if err != nil {
		return nil, err
	}
	return e.commitConnection(cand)
}

// Connect creates a connection between two ports programmatically, with
// the same validation and polarity normalization as a completed drag.
func (e *Engine) Connect(aNodeID, aPortID, bNodeID, bPortID string) (*domain.Connection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cand, err := normalizeEndpoints(e.store, aNodeID, aPortID, bNodeID, bPortID)
	if err != nil {
		e.log.Debug("connect rejected", "a", aNodeID+"."+aPortID, "b", bNodeID+"."+bPortID, "err", err)
		return nil, err
	}
	return e.commitConnection(cand)
}

// commitConnection inserts a normalized candidate and grows the target's
// input list when its type has elastic arity, all in one transaction.
// Callers hold the lock.
func (e *Engine) commitConnection(cand domain.Connection) (*domain.Connection, error) {
	start := time.Now()
	pre := e.store.Snapshot()

	conn, err := e.store.AddConnection(cand)
	if err != nil {
		return nil, err
	}
	var grownNodes []string
	if e.growElasticInput(cand.TargetNodeID) {
		grownNodes = []string{cand.TargetNodeID}
	}

	e.commit(pre)
	e.emitMutation(domain.MutationConnectionsAdded, grownNodes, []string{conn.ID}, start)
	out := *conn
	return &out, nil
}

// growElasticInput appends one fresh input slot to an elastic-arity node.
func (e *Engine) growElasticInput(nodeID string) bool {
	n, ok := e.store.Node(nodeID)
	if !ok || !e.catalog.Info(n.Type).ElasticInputs {
		return false
	}
	seq := len(n.Data.Inputs)
	var id string
	for {
		id = fmt.Sprintf("in-%d", seq)
		if _, _, exists := n.Port(id); !exists {
			break
		}
		seq++
	}
	n.Data.Inputs = append(n.Data.Inputs, domain.Port{
		ID:    id,
		Label: fmt.Sprintf("Input %d", len(n.Data.Inputs)+1),
	})
	return true
}

// --- Structure --------------------------------------------------------------

// AddNode inserts a node; an empty or colliding id is regenerated. Returns
// the stored node.
func (e *Engine) AddNode(n domain.Node) *domain.Node {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	pre := e.store.Snapshot()
	stored := e.store.AddNode(n)
	e.commit(pre)
	e.emitMutation(domain.MutationNodesAdded, []string{stored.ID}, nil, start)
	return stored.Clone()
}

// MoveNode repositions a node.
func (e *Engine) MoveNode(id string, pos domain.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.store.Node(id)
	if !ok {
		return fmt.Errorf("move %q: %w", id, domain.ErrNodeNotFound)
	}
	start := time.Now()
	pre := e.store.Snapshot()
	n.Position = pos
	e.commit(pre)
	e.emitMutation(domain.MutationNodesMoved, []string{id}, nil, start)
	return nil
}

// RemoveNodes deletes nodes along with every connection touching them, in
// one transaction. Group frames listing a removed node get it scrubbed from
// their member list. Unknown ids are skipped. Returns the removed node ids.
func (e *Engine) RemoveNodes(ids ...string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	pre := e.store.Snapshot()

	var removedNodes, removedConns []string
	for _, id := range ids {
		if _, ok := e.store.Node(id); !ok {
			continue
		}
		for _, c := range e.store.ConnectionsTouching(id) {
			if e.store.RemoveConnection(c.ID) {
				removedConns = append(removedConns, c.ID)
			}
		}
		e.store.RemoveNode(id)
		removedNodes = append(removedNodes, id)
	}
	if len(removedNodes) == 0 {
		return nil
	}
	removedSet := make(map[string]bool, len(removedNodes))
	for _, id := range removedNodes {
		removedSet[id] = true
	}
	for _, n := range e.store.Nodes() {
		if n.Type == domain.NodeTypeGroup {
			n.Data.ChildNodeIDs = filterIDs(n.Data.ChildNodeIDs, removedSet)
		}
	}

	e.commit(pre)
	e.emitMutation(domain.MutationNodesRemoved, removedNodes, removedConns, start)
	return removedNodes
}

// DeleteConnection removes one connection by id. No cascade.
func (e *Engine) DeleteConnection(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	pre := e.store.Snapshot()
	if !e.store.RemoveConnection(id) {
		e.log.Debug("delete of unknown connection ignored", "connection", id)
		return false
	}
	e.commit(pre)
	e.emitMutation(domain.MutationConnectionsRemoved, nil, []string{id}, start)
	return true
}

// Group wraps the given live nodes in a new group frame sized to their
// bounding box. Ids that do not resolve are skipped; an empty selection is
// rejected.
func (e *Engine) Group(nodeIDs []string, label string) (*domain.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var members []*domain.Node
	var children []string
	for _, id := range nodeIDs {
		if n, ok := e.store.Node(id); ok {
			members = append(members, n)
			children = append(children, id)
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("group: %w", domain.ErrEmptyGroup)
	}

	start := time.Now()
	pre := e.store.Snapshot()

	frame := domain.Node{
		ID:   domain.NewPrefixedID("group"),
		Type: domain.NodeTypeGroup,
		Data: domain.NodeData{
			Label:        label,
			ChildNodeIDs: children,
		},
	}
	minPos, w, h := boundsOver(e.catalog, members)
	frame.Position = domain.Position{
		X: minPos.X - domain.GroupPadding,
		Y: minPos.Y - domain.GroupPadding - domain.GroupHeaderHeight,
	}
	frame.Data.Width = w + 2*domain.GroupPadding
	frame.Data.Height = h + 2*domain.GroupPadding + domain.GroupHeaderHeight

	stored := e.store.AddNode(frame)
	e.commit(pre)
	e.emitMutation(domain.MutationNodesAdded, []string{stored.ID}, nil, start)
	return stored.Clone(), nil
}

// Ungroup dissolves a group frame, keeping its members and their wiring.
// Only wires attached to the frame itself are cascaded away. Returns the
// member ids that were under the frame.
func (e *Engine) Ungroup(groupID string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.store.Node(groupID)
	if !ok {
		return nil, fmt.Errorf("ungroup %q: %w", groupID, domain.ErrNodeNotFound)
	}
	if n.Type != domain.NodeTypeGroup {
		return nil, fmt.Errorf("ungroup %q (type %s): %w", groupID, n.Type, domain.ErrNotAGroup)
	}
	children := append([]string(nil), n.Data.ChildNodeIDs...)

	start := time.Now()
	pre := e.store.Snapshot()
	var removedConns []string
	for _, c := range e.store.ConnectionsTouching(groupID) {
		if e.store.RemoveConnection(c.ID) {
			removedConns = append(removedConns, c.ID)
		}
	}
	e.store.RemoveNode(groupID)
	e.commit(pre)
	e.emitMutation(domain.MutationNodesRemoved, []string{groupID}, removedConns, start)
	return children, nil
}

// --- Fold / unfold ----------------------------------------------------------

// Compile folds a group into a component instance, publishing its
// definition. A rejection commits nothing.
func (e *Engine) Compile(groupID string) (*domain.Node, *domain.ComponentDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	pre := e.store.Snapshot()
	instance, def, err := e.compiler.Compile(groupID)
	if err != nil {
		e.store.Restore(pre)
		e.log.Warn("compile aborted", "group", groupID, "err", err)
		return nil, nil, err
	}
	e.commit(pre)
	e.emitMutation(domain.MutationComponentCompiled, []string{instance.ID}, nil, start)
	return instance.Clone(), def, nil
}

// Expand unfolds a component instance back into its subgraph. A rejection
// commits nothing.
func (e *Engine) Expand(instanceID string) (*domain.Node, []*domain.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	pre := e.store.Snapshot()
	group, restored, err := e.expander.Expand(instanceID)
	if err != nil {
		e.store.Restore(pre)
		e.log.Warn("expand aborted", "instance", instanceID, "err", err)
		return nil, nil, err
	}
	nodeIDs := make([]string, 0, len(restored)+1)
	nodeIDs = append(nodeIDs, group.ID)
	restoredCopies := make([]*domain.Node, len(restored))
	for i, n := range restored {
		nodeIDs = append(nodeIDs, n.ID)
		restoredCopies[i] = n.Clone()
	}
	e.commit(pre)
	e.emitMutation(domain.MutationComponentExpanded, nodeIDs, nil, start)
	return group.Clone(), restoredCopies, nil
}

// --- History ----------------------------------------------------------------

// BeginAction opens a batch: every mutation until the matching EndAction
// collapses into one undo step. Brackets nest; only the outermost pair
// counts.
func (e *Engine) BeginAction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Begin(e.store.Snapshot())
}

// EndAction closes one batch level.
func (e *Engine) EndAction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.history.End() {
		e.emitHistory("commit")
	}
}

// Undo restores the previous snapshot. Reports false on an empty stack.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restoreFrom(e.history.Undo, "undo")
}

// Redo restores the next snapshot. Reports false on an empty stack.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restoreFrom(e.history.Redo, "redo")
}

// restoreFrom runs one stack movement with the restoring flag held for the
// whole restore, hooks included, so mirrors can suppress their own writes.
func (e *Engine) restoreFrom(pop func(*Snapshot) (*Snapshot, bool), op string) bool {
	start := time.Now()
	snap, ok := pop(e.store.Snapshot())
	if !ok {
		e.log.Debug("nothing to " + op)
		return false
	}
	e.history.SetRestoring(true)
	defer e.history.SetRestoring(false)
	e.store.Restore(snap)
	e.emitHistory(op)
	e.emitMutation(domain.MutationGraphRestored, nil, nil, start)
	return true
}

// CanUndo reports whether an undo step is available.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether a redo step is available.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// UndoDepth returns the undo stack size.
func (e *Engine) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.UndoDepth()
}

// RedoDepth returns the redo stack size.
func (e *Engine) RedoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.RedoDepth()
}

// Restoring reports whether an undo or redo restore is in flight.
func (e *Engine) Restoring() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Restoring()
}

// --- Sync -------------------------------------------------------------------

// SyncReplace swaps in external state without touching the history stacks.
// This is the raw write path for state mirroring; a mirrored change must
// not individually show up as an undo step.
func (e *Engine) SyncReplace(snap *Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	e.store.Restore(snap)
	e.emitMutation(domain.MutationGraphReplaced, nil, nil, start)
}

// LoadSnapshot replaces the graph and resets history, for loading a
// project from a document.
func (e *Engine) LoadSnapshot(snap *Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	e.store.Restore(snap)
	e.history.Reset()
	e.router.Cancel()
	e.emitMutation(domain.MutationGraphReplaced, nil, nil, start)
}

// --- Commit and events ------------------------------------------------------

// commit records one transaction against history. Callers hold the lock.
func (e *Engine) commit(pre *Snapshot) {
	inBatch := e.history.InBatch()
	e.history.Record(pre)
	if !inBatch {
		e.emitHistory("commit")
	}
}

func (e *Engine) emitMutation(kind domain.MutationKind, nodeIDs, connIDs []string, start time.Time) {
	if e.hooks.OnMutation == nil {
		return
	}
	nodes, conns := e.store.Counts()
	e.hooks.OnMutation(context.Background(), &domain.MutationEvent{
		Timestamp:       time.Now(),
		Kind:            kind,
		NodeIDs:         nodeIDs,
		ConnectionIDs:   connIDs,
		NodeCount:       nodes,
		ConnectionCount: conns,
		Restoring:       e.history.Restoring(),
		Duration:        time.Since(start),
	})
}

func (e *Engine) emitHistory(op string) {
	if e.hooks.OnHistory == nil {
		return
	}
	e.hooks.OnHistory(context.Background(), &domain.HistoryEvent{
		Timestamp: time.Now(),
		Op:        op,
		UndoDepth: e.history.UndoDepth(),
		RedoDepth: e.history.RedoDepth(),
	})
}

// boundsOver computes the AABB of the nodes using per-type default sizes.
// Returns the top-left corner and the extent.
func boundsOver(catalog *domain.TypeCatalog, nodes []*domain.Node) (topLeft domain.Position, w, h float64) {
	if len(nodes) == 0 {
		return domain.Position{}, 0, 0
	}
	minX, minY := nodes[0].Position.X, nodes[0].Position.Y
	maxX, maxY := minX, minY
	for _, n := range nodes {
		nw, nh := catalog.Size(n)
		minX = min(minX, n.Position.X)
		minY = min(minY, n.Position.Y)
		maxX = max(maxX, n.Position.X+nw)
		maxY = max(maxY, n.Position.Y+nh)
	}
	return domain.Position{X: minX, Y: minY}, maxX - minX, maxY - minY
}

func filterIDs(ids []string, drop map[string]bool) []string {
	if len(ids) == 0 {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
