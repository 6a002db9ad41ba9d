package domain

import (
	"context"
	"time"
)

// MutationKind categorizes a committed graph change.
type MutationKind string

const (
	MutationNodesAdded         MutationKind = "nodes_added"
	MutationNodesRemoved       MutationKind = "nodes_removed"
	MutationNodesMoved         MutationKind = "nodes_moved"
	MutationConnectionsAdded   MutationKind = "connections_added"
	MutationConnectionsRemoved MutationKind = "connections_removed"
	MutationComponentCompiled  MutationKind = "component_compiled"
	MutationComponentExpanded  MutationKind = "component_expanded"
	MutationGraphRestored      MutationKind = "graph_restored"
	MutationGraphReplaced      MutationKind = "graph_replaced"
)

// MutationEvent describes one committed change to the graph. Events fire
// after the mutation is applied, while the editor lock is still held.
type MutationEvent struct {
	Timestamp time.Time    `json:"timestamp"`
	Kind      MutationKind `json:"kind"`

	// NodeIDs and ConnectionIDs name the entities the mutation touched.
	NodeIDs       []string `json:"nodeIds,omitempty"`
	ConnectionIDs []string `json:"connectionIds,omitempty"`

	// NodeCount and ConnectionCount are the graph totals after the change.
	NodeCount       int `json:"nodeCount"`
	ConnectionCount int `json:"connectionCount"`

	// Restoring is set while undo/redo replays a snapshot, so mirrors can
	// tell replayed changes from fresh ones.
	Restoring bool `json:"restoring,omitempty"`

	// Duration measures the mutation from entry to commit.
	Duration time.Duration `json:"-"`
}

// HistoryEvent describes movement on the undo/redo stacks.
type HistoryEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Op        string    `json:"op"` // "commit", "undo" or "redo"
	UndoDepth int       `json:"undoDepth"`
	RedoDepth int       `json:"redoDepth"`
}

// LifecycleHooks defines callbacks for editor observability. Nil callbacks
// are skipped. Callbacks run synchronously under the editor lock and must
// not call back into the editor.
type LifecycleHooks struct {
	OnMutation func(context.Context, *MutationEvent)
	OnHistory  func(context.Context, *HistoryEvent)
}
