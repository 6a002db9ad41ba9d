package engine

// DefaultHistoryLimit bounds the undo stack when no limit is configured.
const DefaultHistoryLimit = 100

// History is the transactional undo/redo model over joint graph snapshots.
//
// Every committed transaction pushes the pre-state onto the undo stack and
// clears redo. Begin/End brackets collapse any number of commits into one
// undo step. The store itself is owned by the engine; History only shuttles
// snapshots.
type History struct {
	limit int

	undo []*Snapshot
	redo []*Snapshot

	// batch bookkeeping
	depth   int
	pending *Snapshot
	dirty   bool

	restoring bool
}

// NewHistory returns a history with the given stack bound. Non-positive
// limits fall back to DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Begin opens (or nests into) a batch. The pre-state snapshot is captured
// only when the outermost bracket opens; nested calls just count.
func (h *History) Begin(pre *Snapshot) {
	h.depth++
	if h.depth == 1 {
		h.pending = pre
		h.dirty = false
	}
}

// End closes one bracket level. Closing the outermost bracket pushes the
// captured pre-state as a single undo step, if anything committed inside.
// Unbalanced calls are tolerated. Reports whether an undo step was pushed.
func (h *History) End() bool {
	if h.depth == 0 {
		return false
	}
	h.depth--
	if h.depth > 0 {
		return false
	}
	pushed := h.dirty && h.pending != nil
	if pushed {
		h.push(h.pending)
	}
	h.pending = nil
	h.dirty = false
	return pushed
}

// InBatch reports whether a Begin bracket is open.
func (h *History) InBatch() bool {
	return h.depth > 0
}

// Record commits one transaction. Inside a batch it only marks the batch
// dirty; outside it pushes the pre-state immediately.
func (h *History) Record(pre *Snapshot) {
	if h.depth > 0 {
		h.dirty = true
		return
	}
	h.push(pre)
}

// Undo pops the most recent undo snapshot, pushing the current state onto
// redo. Returns (nil, false) on an empty stack.
func (h *History) Undo(current *Snapshot) (*Snapshot, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return top, true
}

// Redo pops the most recent redo snapshot, pushing the current state onto
// undo. Returns (nil, false) on an empty stack.
func (h *History) Redo(current *Snapshot) (*Snapshot, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return top, true
}

// CanUndo reports whether the undo stack is non-empty.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoDepth returns the undo stack size.
func (h *History) UndoDepth() int { return len(h.undo) }

// RedoDepth returns the redo stack size.
func (h *History) RedoDepth() int { return len(h.redo) }

// SetRestoring flips the flag that marks an in-flight snapshot restore.
func (h *History) SetRestoring(v bool) { h.restoring = v }

// Restoring reports whether a restore is in flight, so collaborators can
// tell replayed mutations from fresh ones.
func (h *History) Restoring() bool { return h.restoring }

// Reset drops both stacks and any open batch. Used when the whole graph is
// replaced from outside the history path.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
	h.depth = 0
	h.pending = nil
	h.dirty = false
}

func (h *History) push(pre *Snapshot) {
	h.undo = append(h.undo, pre)
	if len(h.undo) > h.limit {
		// Evict the oldest step. Copy so the backing array does not pin it.
		h.undo = append(h.undo[:0:0], h.undo[1:]...)
	}
	h.redo = nil
}
