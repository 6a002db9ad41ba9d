package patchbay

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/patchbay-io/patchbay/internal/engine"
	"github.com/patchbay-io/patchbay/internal/logging"
	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
	"github.com/patchbay-io/patchbay/pkg/registry"
)

// Snapshot, DragState, and ViewTransform cross the facade boundary. The
// aliases keep embedders off the internal packages.
type (
	// Snapshot is a deep copy of the joint graph state.
	Snapshot = engine.Snapshot
	// DragState describes a connection drag in flight.
	DragState = engine.DragState
	// ViewTransform maps pointer coordinates into canvas space.
	ViewTransform = engine.ViewTransform
)

// Editor is the high-level entry point for the Patchbay library.
// It wraps the internal engine and provides a simplified API for consumers.
type Editor struct {
	engine       *engine.Engine
	reg          *registry.Registry
	catalog      *domain.TypeCatalog
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	historyLimit int

	mu   sync.RWMutex
	name string
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithName labels the editor with a project name. The name rides along on
// log records and exported documents.
func WithName(name string) Option {
	return func(e *Editor) {
		e.name = name
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithRegistry injects a shared component registry, so several editors can
// draw on one component library.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Editor) {
		e.reg = reg
	}
}

// WithTypeCatalog replaces the built-in node type catalog.
func WithTypeCatalog(catalog *domain.TypeCatalog) Option {
	return func(e *Editor) {
		e.catalog = catalog
	}
}

// WithHistoryLimit caps the undo stack depth. Zero means unlimited.
func WithHistoryLimit(limit int) Option {
	return func(e *Editor) {
		e.historyLimit = limit
	}
}

// New initializes a new Patchbay Editor. The zero configuration is fully
// usable: an empty graph, the built-in type catalog, a private component
// registry, and a silent logger.
func New(opts ...Option) *Editor {
	ed := &Editor{}

	// Apply options first so defaults only fill genuine gaps.
	for _, opt := range opts {
		opt(ed)
	}

	if ed.logger == nil {
		ed.logger = logging.NewNop()
	}
	if ed.reg == nil {
		ed.reg = registry.New()
	}
	if ed.catalog == nil {
		ed.catalog = domain.NewTypeCatalog()
	}

	// Enrich logger with the project name if available.
	if ed.name != "" {
		ed.logger = ed.logger.With("project", ed.name)
	}

	ed.engine = engine.New(engine.Config{
		Logger:       ed.logger,
		Registry:     ed.reg,
		Catalog:      ed.catalog,
		Hooks:        ed.hooks,
		HistoryLimit: ed.historyLimit,
	})
	return ed
}

// Name returns the project name.
func (e *Editor) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.name
}

func (e *Editor) setName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.name = name
}

// Registry returns the component registry the editor publishes to.
func (e *Editor) Registry() *registry.Registry { return e.reg }

// Catalog returns the node type catalog.
func (e *Editor) Catalog() *domain.TypeCatalog { return e.catalog }

// --- Documents --------------------------------------------------------------

// LoadDocument replaces the whole editor state with a document and resets
// history. The document is validated first, and its embedded component
// definitions are published to the registry; definitions already published
// under the same id stay as they are.
func (e *Editor) LoadDocument(doc *document.GraphDocument) error {
	if doc == nil {
		return fmt.Errorf("load: nil document")
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("load %q: %w", doc.Name, err)
	}
	if err := e.adoptDefinitions(doc); err != nil {
		return fmt.Errorf("load %q: %w", doc.Name, err)
	}
	if doc.Name != "" {
		e.setName(doc.Name)
	}
	e.engine.LoadSnapshot(&engine.Snapshot{
		Nodes:       doc.Nodes,
		Connections: doc.Connections,
	})
	e.logger.Info("document loaded",
		"name", doc.Name,
		"nodes", len(doc.Nodes),
		"connections", len(doc.Connections),
		"definitions", len(doc.Definitions))
	return nil
}

// Document exports the editor state as a self-contained document: the
// graph plus every component definition reachable from its instances,
// nested components included.
func (e *Editor) Document() *document.GraphDocument {
	snap := e.engine.Snapshot()
	return &document.GraphDocument{
		Name:        e.Name(),
		Nodes:       snap.Nodes,
		Connections: snap.Connections,
		Definitions: e.definitionClosure(snap.Nodes),
	}
}

// Sync mirrors external state into the editor without recording history.
// This is the raw write path for multi-surface mirroring: a change synced
// from elsewhere must not show up as a local undo step.
func (e *Editor) Sync(doc *document.GraphDocument) error {
	if doc == nil {
		return fmt.Errorf("sync: nil document")
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("sync %q: %w", doc.Name, err)
	}
	if err := e.adoptDefinitions(doc); err != nil {
		return fmt.Errorf("sync %q: %w", doc.Name, err)
	}
	e.engine.SyncReplace(&engine.Snapshot{
		Nodes:       doc.Nodes,
		Connections: doc.Connections,
	})
	return nil
}

// adoptDefinitions publishes the document's embedded definitions. The
// registry is write-once, so an id that is already published wins over the
// embedded copy.
func (e *Editor) adoptDefinitions(doc *document.GraphDocument) error {
	for i := range doc.Definitions {
		err := e.reg.Publish(&doc.Definitions[i])
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrDefinitionExists):
			e.logger.Debug("definition already published", "definition", doc.Definitions[i].ID)
		default:
			return err
		}
	}
	return nil
}

// definitionClosure resolves every definition reachable from the instance
// nodes, in first-use order. Definitions used inside other definitions
// follow the ones that pulled them in.
func (e *Editor) definitionClosure(nodes []domain.Node) []domain.ComponentDefinition {
	var queue []string
	for i := range nodes {
		if nodes[i].Type == domain.NodeTypeComponent && nodes[i].Data.ComponentID != "" {
			queue = append(queue, nodes[i].Data.ComponentID)
		}
	}

	var out []domain.ComponentDefinition
	seen := make(map[string]bool)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true

		def, err := e.reg.Resolve(id)
		if err != nil {
			e.logger.Warn("export skipped unresolved definition", "definition", id, "err", err)
			continue
		}
		out = append(out, *def)
		for j := range def.InternalNodes {
			inner := &def.InternalNodes[j]
			if inner.Type == domain.NodeTypeComponent && inner.Data.ComponentID != "" {
				queue = append(queue, inner.Data.ComponentID)
			}
		}
	}
	return out
}

// --- Read surface -----------------------------------------------------------

// Node returns a copy of the node for an id.
func (e *Editor) Node(id string) (*domain.Node, bool) { return e.engine.Node(id) }

// Nodes returns copies of all nodes in insertion order.
func (e *Editor) Nodes() []*domain.Node { return e.engine.Nodes() }

// Connection returns a copy of the connection for an id.
func (e *Editor) Connection(id string) (*domain.Connection, bool) {
	return e.engine.Connection(id)
}

// Connections returns copies of all connections in insertion order.
func (e *Editor) Connections() []*domain.Connection { return e.engine.Connections() }

// Counts returns the node and connection totals.
func (e *Editor) Counts() (nodes, connections int) { return e.engine.Counts() }

// Snapshot deep-copies the whole joint graph state.
func (e *Editor) Snapshot() *Snapshot { return e.engine.Snapshot() }

// --- Gestures ---------------------------------------------------------------

// SetView replaces the viewport transform used to convert pointer
// coordinates into canvas space.
func (e *Editor) SetView(v ViewTransform) { e.engine.SetView(v) }

// View returns the current viewport transform.
func (e *Editor) View() ViewTransform { return e.engine.View() }

// StartConnection begins a connection drag from a declared port.
func (e *Editor) StartConnection(nodeID, portID string, pointer domain.Position) error {
	return e.engine.StartConnection(nodeID, portID, pointer)
}

// UpdateDrag moves the live drag pointer. A no-op when idle.
func (e *Editor) UpdateDrag(pointer domain.Position) { e.engine.UpdateDrag(pointer) }

// DragState returns a copy of the live drag, or nil when idle.
func (e *Editor) DragState() *DragState { return e.engine.DragState() }

// CancelConnection discards the live drag without touching the graph.
// Releasing the pointer over empty canvas lands here too.
func (e *Editor) CancelConnection() bool { return e.engine.CancelConnection() }

// CompleteConnection lands the live drag on a port. Rejections return an
// error without mutating anything.
func (e *Editor) CompleteConnection(targetNodeID, targetPortID string) (*domain.Connection, error) {
	return e.engine.CompleteConnection(targetNodeID, targetPortID)
}

// Connect wires two ports programmatically, with the same validation and
// polarity normalization as a completed drag.
func (e *Editor) Connect(aNodeID, aPortID, bNodeID, bPortID string) (*domain.Connection, error) {
	return e.engine.Connect(aNodeID, aPortID, bNodeID, bPortID)
}

// --- Structure --------------------------------------------------------------

// AddNode inserts a node; an empty or colliding id is regenerated. Returns
// the stored node.
func (e *Editor) AddNode(n domain.Node) *domain.Node { return e.engine.AddNode(n) }

// MoveNode repositions a node.
func (e *Editor) MoveNode(id string, pos domain.Position) error {
	return e.engine.MoveNode(id, pos)
}

// RemoveNodes deletes nodes along with every connection touching them, in
// one transaction. Unknown ids are skipped. Returns the removed node ids.
func (e *Editor) RemoveNodes(ids ...string) []string { return e.engine.RemoveNodes(ids...) }

// DeleteConnection removes a single connection by id.
func (e *Editor) DeleteConnection(id string) bool { return e.engine.DeleteConnection(id) }

// Group wraps the given nodes in a group frame sized to their bounds.
func (e *Editor) Group(nodeIDs []string, label string) (*domain.Node, error) {
	return e.engine.Group(nodeIDs, label)
}

// Ungroup dissolves a group frame, keeping its members and their wiring.
// Returns the member ids that were under the frame.
func (e *Editor) Ungroup(groupID string) ([]string, error) {
	return e.engine.Ungroup(groupID)
}

// --- Components -------------------------------------------------------------

// Compile folds a group into a component instance and publishes its
// definition. A rejection commits nothing.
func (e *Editor) Compile(groupID string) (*domain.Node, *domain.ComponentDefinition, error) {
	return e.engine.Compile(groupID)
}

// Expand unfolds a component instance back into its subgraph. A rejection
// commits nothing.
func (e *Editor) Expand(instanceID string) (*domain.Node, []*domain.Node, error) {
	return e.engine.Expand(instanceID)
}

// --- History ----------------------------------------------------------------

// BeginAction opens a batch: every mutation until the matching EndAction
// collapses into one undo step. Brackets nest; only the outermost pair
// counts.
func (e *Editor) BeginAction() { e.engine.BeginAction() }

// EndAction closes one batch level.
func (e *Editor) EndAction() { e.engine.EndAction() }

// Undo restores the previous snapshot. Reports false on an empty stack.
func (e *Editor) Undo() bool { return e.engine.Undo() }

// Redo restores the next snapshot. Reports false on an empty stack.
func (e *Editor) Redo() bool { return e.engine.Redo() }

// CanUndo reports whether an undo step is available.
func (e *Editor) CanUndo() bool { return e.engine.CanUndo() }

// CanRedo reports whether a redo step is available.
func (e *Editor) CanRedo() bool { return e.engine.CanRedo() }

// UndoDepth returns the undo stack size.
func (e *Editor) UndoDepth() int { return e.engine.UndoDepth() }

// RedoDepth returns the redo stack size.
func (e *Editor) RedoDepth() int { return e.engine.RedoDepth() }

// Restoring reports whether an undo or redo restore is in flight.
func (e *Editor) Restoring() bool { return e.engine.Restoring() }
