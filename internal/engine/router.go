package engine

import (
	"fmt"
	"log/slog"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// ViewTransform is the current pan/zoom of the canvas viewport. Pointer
// coordinates arrive in screen space and are converted to canvas-local
// space before any hit math.
type ViewTransform struct {
	Pan  domain.Position `json:"pan"`
	Zoom float64         `json:"zoom"`
}

// ToCanvas converts a screen-space pointer position into canvas-local
// space. A zero or negative zoom is treated as 1.
func (v ViewTransform) ToCanvas(screen domain.Position) domain.Position {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return domain.Position{
		X: (screen.X - v.Pan.X) / zoom,
		Y: (screen.Y - v.Pan.Y) / zoom,
	}
}

// DragState is the live connection gesture. At most one exists at a time.
type DragState struct {
	SourceNodeID string          `json:"sourceNodeId"`
	SourcePortID string          `json:"sourcePortId"`
	SourceRole   domain.Role     `json:"sourceRole"`
	Start        domain.Position `json:"start"`
	Pointer      domain.Position `json:"pointer"`
}

// Router owns the connection gesture state machine: Idle, then Dragging
// after a successful start, then Idle again on complete or cancel.
//
// Rejections are silent by policy: the gesture simply does not produce a
// connection, and the reason only shows up at debug level. The router never
// mutates the store; it validates and normalizes, the engine commits.
type Router struct {
	store *Store
	log   *slog.Logger

	view ViewTransform
	drag *DragState
}

// NewRouter wires a router over a store.
func NewRouter(store *Store, log *slog.Logger) *Router {
	return &Router{store: store, log: log, view: ViewTransform{Zoom: 1}}
}

// SetView replaces the viewport transform used for pointer conversion.
func (r *Router) SetView(v ViewTransform) {
	r.view = v
}

// View returns the current viewport transform.
func (r *Router) View() ViewTransform {
	return r.view
}

// Active returns a copy of the live drag state, or nil when idle.
func (r *Router) Active() *DragState {
	if r.drag == nil {
		return nil
	}
	d := *r.drag
	return &d
}

// Start begins a drag from a declared port. The pointer arrives in screen
// space. Starting while another drag is live replaces it.
func (r *Router) Start(nodeID, portID string, pointer domain.Position) error {
	_, role, err := r.store.ResolvePort(nodeID, portID)
	if err != nil {
		r.log.Debug("drag start rejected", "node", nodeID, "port", portID, "err", err)
		return err
	}
	if r.drag != nil {
		r.log.Debug("drag restarted over live drag", "node", nodeID, "port", portID)
	}
	local := r.view.ToCanvas(pointer)
	r.drag = &DragState{
		SourceNodeID: nodeID,
		SourcePortID: portID,
		SourceRole:   role,
		Start:        local,
		Pointer:      local,
	}
	return nil
}

// DragTo updates the pointer position of the live drag. A no-op when idle.
func (r *Router) DragTo(pointer domain.Position) {
	if r.drag == nil {
		return
	}
	r.drag.Pointer = r.view.ToCanvas(pointer)
}

// Cancel discards the live drag without touching the graph. Reports whether
// a drag was actually live. Releasing the pointer over empty canvas lands
// here too.
func (r *Router) Cancel() bool {
	was := r.drag != nil
	r.drag = nil
	return was
}

// Complete validates the landing endpoint and returns the normalized
// connection candidate to commit. Drag state is cleared whether or not the
// gesture survives validation.
//
// The candidate has no id yet; the store assigns one at insertion.
func (r *Router) Complete(targetNodeID, targetPortID string) (domain.Connection, error) {
	drag := r.drag
	r.drag = nil
	if drag == nil {
		return domain.Connection{}, domain.ErrNoActiveDrag
	}

	// The grab-side endpoint is re-resolved here rather than trusted from
	// Start: the node may have been deleted mid-drag.
	cand, err := normalizeEndpoints(r.store, drag.SourceNodeID, drag.SourcePortID, targetNodeID, targetPortID)
	if err != nil {
		r.log.Debug("connection rejected",
			"source", drag.SourceNodeID+"."+drag.SourcePortID,
			"target", targetNodeID+"."+targetPortID,
			"err", err,
		)
		return domain.Connection{}, err
	}
	return cand, nil
}

// normalizeEndpoints validates a free pair of endpoints and returns the
// candidate connection with polarity normalized.
func normalizeEndpoints(store *Store, aNodeID, aPortID, bNodeID, bPortID string) (domain.Connection, error) {
	// 1. Resolve both endpoints by declared membership.
	_, aRole, err := store.ResolvePort(aNodeID, aPortID)
	if err != nil {
		return domain.Connection{}, err
	}
	_, bRole, err := store.ResolvePort(bNodeID, bPortID)
	if err != nil {
		return domain.Connection{}, err
	}

	// 2. Two outputs or two inputs never connect.
	if aRole == bRole {
		return domain.Connection{}, fmt.Errorf("%s to %s: %w", aRole, bRole, domain.ErrSameRole)
	}

	// 3. Normalize polarity: the output end is always the source,
	// whichever end the user grabbed first.
	cand := domain.Connection{
		SourceNodeID: aNodeID, SourcePort: aPortID,
		TargetNodeID: bNodeID, TargetPort: bPortID,
	}
	if aRole == domain.RoleInput {
		cand = domain.Connection{
			SourceNodeID: bNodeID, SourcePort: bPortID,
			TargetNodeID: aNodeID, TargetPort: aPortID,
		}
	}

	// 4. One wire per endpoint tuple.
	if store.HasTuple(cand.SourceNodeID, cand.SourcePort, cand.TargetNodeID, cand.TargetPort) {
		return domain.Connection{}, domain.ErrDuplicateConnection
	}
	return cand, nil
}
